package jobs

import (
	"context"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/pipeline"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

// MaintenanceJob enforces retention horizons on Sundays. The daily
// pipeline also cleans up after itself; this sweep covers weeks where
// no daily run completed.
type MaintenanceJob struct {
	orchestrator *pipeline.Orchestrator
	logger       *logger.Logger
}

// NewMaintenanceJob creates the maintenance job.
func NewMaintenanceJob(orchestrator *pipeline.Orchestrator, log *logger.Logger) *MaintenanceJob {
	return &MaintenanceJob{orchestrator: orchestrator, logger: log}
}

func (j *MaintenanceJob) Name() string {
	return "retention_maintenance"
}

// Schedule fires Sunday at 04:00.
func (j *MaintenanceJob) Schedule() string {
	return "0 0 4 * * SUN"
}

func (j *MaintenanceJob) Run(ctx context.Context) error {
	j.orchestrator.RunCleanup(ctx, time.Now())
	j.logger.Info("retention maintenance finished")
	return nil
}
