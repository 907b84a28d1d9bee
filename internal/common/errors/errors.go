// Package errors provides the standardized error taxonomy of the forecast engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// A readiness signal source errored or timed out. The affected factor
	// degrades to its documented default; scoring continues.
	ErrCodeCollaboratorUnavailable ErrorCode = "COLLABORATOR_UNAVAILABLE"

	// More than one prediction row is marked latest for one interview.
	// This is a bug, not a runtime condition to swallow.
	ErrCodeLatestInvariantViolation ErrorCode = "LATEST_INVARIANT_VIOLATION"

	ErrCodePredictionSaveFailed ErrorCode = "PREDICTION_SAVE_FAILED"
	ErrCodePredictionNotFound   ErrorCode = "PREDICTION_NOT_FOUND"
	ErrCodeInvalidOutcome       ErrorCode = "INVALID_OUTCOME"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"

	// The optional AI enrichment errored, timed out, or returned an invalid
	// payload. Always swallowed; insights are simply omitted.
	ErrCodeEnrichmentFailed ErrorCode = "ENRICHMENT_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	var std *StandardError
	if !errors.As(target, &std) {
		return false
	}
	return e.Code == std.Code
}

// HasCode reports whether err is a StandardError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	var std *StandardError
	if !errors.As(err, &std) {
		return false
	}
	return std.Code == code
}

// NewCollaboratorUnavailableError marks a degraded readiness signal source.
func NewCollaboratorUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCollaboratorUnavailable,
		Message:   "Readiness signal source unavailable",
		Details:   fmt.Sprintf("source: %s, error: %v", source, err),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source},
		Timestamp: time.Now().UTC(),
	}
}

// NewLatestInvariantViolationError reports duplicate latest prediction rows.
func NewLatestInvariantViolationError(interviewID string, latestCount int) *StandardError {
	return &StandardError{
		Code:      ErrCodeLatestInvariantViolation,
		Message:   "More than one latest prediction for interview",
		Details:   fmt.Sprintf("interviewId: %s, latestCount: %d", interviewID, latestCount),
		Retryable: false,
		Metadata:  map[string]interface{}{"interviewId": interviewID, "latestCount": latestCount},
		Timestamp: time.Now().UTC(),
	}
}

// NewPredictionSaveFailedError creates a retryable persistence error.
func NewPredictionSaveFailedError(interviewID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePredictionSaveFailed,
		Message:   "Failed to persist prediction",
		Details:   fmt.Sprintf("interviewId: %s, error: %v", interviewID, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPredictionNotFoundError creates a non-retryable lookup error.
func NewPredictionNotFoundError(predictionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodePredictionNotFound,
		Message:   "Prediction not found",
		Details:   fmt.Sprintf("predictionId: %s", predictionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidOutcomeError creates a non-retryable validation error.
func NewInvalidOutcomeError(outcome string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidOutcome,
		Message:   "Unsupported interview outcome",
		Details:   fmt.Sprintf("outcome: %s", outcome),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEnrichmentFailedError wraps an AI insight failure. Callers log it and
// omit the insights; it never propagates to the composite score.
func NewEnrichmentFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEnrichmentFailed,
		Message:   "AI insight enrichment failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
