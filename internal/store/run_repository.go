package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// RunRepository implements contracts.RunRepository over the
// append-only batch audit log.
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run log repository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Create appends a new run record and fills its generated id.
func (r *RunRepository) Create(ctx context.Context, run *contracts.UpdateRun) error {
	query := `
		INSERT INTO data_update_log
			(run_date, source, target_table, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		run.RunDate, run.Source, run.TargetTable, run.Status, run.StartedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("create run %s/%s: %w", run.RunDate.Format("2006-01-02"), run.Source, err)
	}
	return nil
}

// Update rewrites a run's counters and status by id.
func (r *RunRepository) Update(ctx context.Context, run *contracts.UpdateRun) error {
	query := `
		UPDATE data_update_log SET
			records_processed = $2,
			records_inserted = $3,
			records_updated = $4,
			records_failed = $5,
			status = $6,
			error_summary = $7,
			completed_at = $8,
			execution_time_seconds = $9
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Processed, run.Inserted, run.Updated, run.Failed,
		run.Status, run.ErrorSummary,
		run.CompletedAt, run.ExecutionSeconds,
	)
	if err != nil {
		return fmt.Errorf("update run %d: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update run %d: %w", run.ID, contracts.ErrNotFound)
	}
	return nil
}

const runColumns = `id, run_date, source, target_table,
	records_processed, records_inserted, records_updated, records_failed,
	status, error_summary, started_at, completed_at, execution_time_seconds`

// GetByDate retrieves the most recent run for a date. Reruns of the
// same date stack; the newest record is authoritative.
func (r *RunRepository) GetByDate(ctx context.Context, date time.Time) (*contracts.UpdateRun, error) {
	query := `SELECT ` + runColumns + ` FROM data_update_log
		WHERE run_date = $1
		ORDER BY started_at DESC
		LIMIT 1`

	var run contracts.UpdateRun
	err := r.pool.QueryRow(ctx, query, date).Scan(
		&run.ID, &run.RunDate, &run.Source, &run.TargetTable,
		&run.Processed, &run.Inserted, &run.Updated, &run.Failed,
		&run.Status, &run.ErrorSummary,
		&run.StartedAt, &run.CompletedAt, &run.ExecutionSeconds,
	)
	if noRows(err) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// DeleteOlderThan removes run records dated before cutoff and reports
// how many rows went away.
func (r *RunRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM data_update_log WHERE run_date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
