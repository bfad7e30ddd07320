package contracts

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy for the daily pipeline. Record-level errors never
// abort a run; stage-level errors abort the current stage only.
var (
	// ErrSourceUnavailable marks a transient upstream failure
	// (network error, 5xx, timeout). Retried with backoff.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited marks an upstream throttle response. Retryable
	// after a delay.
	ErrRateLimited = errors.New("rate limited by source")

	// ErrParse marks a malformed upstream payload. Not retryable for
	// that record.
	ErrParse = errors.New("parse error")

	// ErrInsufficientHistory marks a computation deliberately skipped
	// because too little history precedes the target date. Recorded as
	// absent, never counted as a failure.
	ErrInsufficientHistory = errors.New("insufficient price history")

	// ErrNotReady is returned by the query interface when the run that
	// determines a date's results has not finished.
	ErrNotReady = errors.New("results not ready for requested date")

	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// IsTransient reports whether an error should be retried with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) || errors.Is(err, ErrRateLimited)
}

// ValidationError rejects a single malformed or inconsistent record.
// The record is counted as failed on the run log and the batch
// continues.
type ValidationError struct {
	Symbol string
	Date   time.Time
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record %s@%s: %s", e.Symbol, e.Date.Format("2006-01-02"), e.Reason)
}

// PersistenceError marks a storage write failure after retries were
// exhausted. Scope tells the orchestrator whether a whole stage is
// affected.
type PersistenceError struct {
	Op         string
	StageFatal bool
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SchedulingError means the orchestrator itself could not start a run.
// No partial state is created.
type SchedulingError struct {
	Date time.Time
	Err  error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("cannot start run for %s: %v", e.Date.Format("2006-01-02"), e.Err)
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}
