// internal/store/lock.go
package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "readiness:lock:"

// InterviewLock is the advisory lock table keyed by interview id. It
// guards recompute so only one writer per interview proceeds at a time;
// losers re-read the fresh latest row instead of recomputing twice. The
// TTL bounds how long a crashed holder can block others.
type InterviewLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewInterviewLock(client *redis.Client, ttl time.Duration) *InterviewLock {
	return &InterviewLock{client: client, ttl: ttl}
}

// Acquire tries to take the lock for an interview. It returns false when
// another recompute already holds it.
func (l *InterviewLock) Acquire(ctx context.Context, interviewID string) (bool, error) {
	return l.client.SetNX(ctx, lockKeyPrefix+interviewID, "1", l.ttl).Result()
}

// Release frees the lock.
func (l *InterviewLock) Release(ctx context.Context, interviewID string) error {
	return l.client.Del(ctx, lockKeyPrefix+interviewID).Err()
}
