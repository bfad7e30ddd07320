package contracts

import (
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a batch run.
type RunStatus string

const (
	RunPending             RunStatus = "pending"
	RunProcessing          RunStatus = "processing"
	RunCompleted           RunStatus = "completed"
	RunCompletedWithErrors RunStatus = "completed_with_errors"
	RunFailed              RunStatus = "failed"
)

// Terminal reports whether the status is final. Finalized runs are
// never retroactively edited.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunCompletedWithErrors, RunFailed:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal state
// machine transition: pending -> processing -> {completed,
// completed_with_errors, failed}.
func (s RunStatus) CanTransition(next RunStatus) bool {
	switch s {
	case RunPending:
		return next == RunProcessing || next == RunFailed
	case RunProcessing:
		return next.Terminal()
	}
	return false
}

// UpdateRun is the append-only audit record for one batch execution.
type UpdateRun struct {
	ID          int64     `json:"id"`
	RunDate     time.Time `json:"run_date"`
	Source      string    `json:"source"`
	TargetTable string    `json:"target_table"`

	Processed int `json:"records_processed"`
	Inserted  int `json:"records_inserted"`
	Updated   int `json:"records_updated"`
	Failed    int `json:"records_failed"`

	Status       RunStatus `json:"status"`
	ErrorSummary string    `json:"error_summary,omitempty"`

	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	ExecutionSeconds int        `json:"execution_time_seconds"`
}

// Transition validates and applies a status change.
func (r *UpdateRun) Transition(next RunStatus) error {
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("illegal run transition %s -> %s", r.Status, next)
	}
	r.Status = next
	return nil
}

// FinalStatus picks the terminal status from the run's failure counts:
// zero failures completes cleanly, record-level failures downgrade to
// completed_with_errors.
func (r *UpdateRun) FinalStatus() RunStatus {
	if r.Failed > 0 {
		return RunCompletedWithErrors
	}
	return RunCompleted
}
