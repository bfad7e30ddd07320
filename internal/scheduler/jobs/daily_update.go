package jobs

import (
	"context"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/pipeline"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

// DailyUpdateJob runs the full pipeline after the TWSE settlement data
// publishes in the evening.
type DailyUpdateJob struct {
	orchestrator *pipeline.Orchestrator
	logger       *logger.Logger
}

// NewDailyUpdateJob creates the daily update job.
func NewDailyUpdateJob(orchestrator *pipeline.Orchestrator, log *logger.Logger) *DailyUpdateJob {
	return &DailyUpdateJob{orchestrator: orchestrator, logger: log}
}

func (j *DailyUpdateJob) Name() string {
	return "daily_update"
}

// Schedule fires at 18:30 Monday through Friday; T86 and MI_MARGN
// publish between 17:00 and 18:00 local time.
func (j *DailyUpdateJob) Schedule() string {
	return "0 30 18 * * MON-FRI"
}

func (j *DailyUpdateJob) Run(ctx context.Context) error {
	date := time.Now().Truncate(24 * time.Hour)
	run, err := j.orchestrator.RunDailyUpdate(ctx, date)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"date":   date.Format("2006-01-02"),
		"status": string(run.Status),
	}).Info("scheduled daily update finished")
	return nil
}
