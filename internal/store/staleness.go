// internal/store/staleness.go
package store

import (
	"time"

	"interview-forecast/internal/models"
)

// DefaultStalenessTTL is how long a prediction stays fresh absent a newer
// match analysis.
const DefaultStalenessTTL = 6 * time.Hour

// NeedsRecompute is the single staleness predicate: a prediction must be
// recomputed when none exists, when it is older than ttl, or when the
// match analysis was updated after it was generated. Both now and the
// match-update time are injected so the predicate tests without a clock.
func NeedsRecompute(p *models.Prediction, now, latestMatchUpdate time.Time, ttl time.Duration) bool {
	if p == nil {
		return true
	}
	if now.Sub(p.GeneratedAt) > ttl {
		return true
	}
	if !latestMatchUpdate.IsZero() && latestMatchUpdate.After(p.GeneratedAt) {
		return true
	}
	return false
}
