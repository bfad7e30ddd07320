package jobs

import (
	"context"

	"github.com/jeffhong58/ai-stock-selector/internal/pipeline"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

// FundamentalsJob re-scrapes quarterly filings weekly. Filings trickle
// in around statutory deadlines, so a weekly sweep keeps the store
// current without hammering MOPS daily.
type FundamentalsJob struct {
	orchestrator *pipeline.Orchestrator
	logger       *logger.Logger
}

// NewFundamentalsJob creates the fundamentals refresh job.
func NewFundamentalsJob(orchestrator *pipeline.Orchestrator, log *logger.Logger) *FundamentalsJob {
	return &FundamentalsJob{orchestrator: orchestrator, logger: log}
}

func (j *FundamentalsJob) Name() string {
	return "fundamentals_refresh"
}

// Schedule fires Saturday morning, off trading hours.
func (j *FundamentalsJob) Schedule() string {
	return "0 0 6 * * SAT"
}

func (j *FundamentalsJob) Run(ctx context.Context) error {
	result, err := j.orchestrator.RefreshFundamentals(ctx)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"processed": result.Processed,
		"failed":    result.Failed,
	}).Info("fundamentals refresh finished")
	return nil
}
