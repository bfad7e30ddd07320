package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffhong58/ai-stock-selector/pkg/config"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

type stubJob struct {
	name string
}

func (j stubJob) Name() string     { return j.name }
func (j stubJob) Schedule() string { return "@daily" }

func (j stubJob) Run(context.Context) error { return nil }

func testScheduler() *Scheduler {
	cfg := &config.Config{LogLevel: "error", LogFormat: "console"}
	return New(logger.New(cfg))
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := testScheduler()

	require.NoError(t, s.AddJob(stubJob{name: "daily_update"}))
	assert.Error(t, s.AddJob(stubJob{name: "daily_update"}))
}

func TestRunNowUnknownJob(t *testing.T) {
	s := testScheduler()
	assert.Error(t, s.RunNow("nope"))
}

func TestHistoryTracksResults(t *testing.T) {
	s := testScheduler()
	require.NoError(t, s.AddJob(stubJob{name: "daily_update"}))

	history, err := s.History("daily_update")
	require.NoError(t, err)
	assert.Nil(t, history.Latest())

	_, err = s.History("nope")
	assert.Error(t, err)
}

func TestJobHistoryBounded(t *testing.T) {
	history := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		history.AddResult(JobResult{
			JobName:   "daily_update",
			StartTime: time.Now(),
			Success:   i%2 == 0,
			Error:     fmt.Sprintf("attempt %d", i),
		})
	}

	assert.Len(t, history.Results, historyLimit)
	assert.NotNil(t, history.Latest())
}

func TestSuccessRate(t *testing.T) {
	history := &JobHistory{}
	assert.Equal(t, 0.0, history.SuccessRate())

	history.AddResult(JobResult{Success: true})
	history.AddResult(JobResult{Success: true})
	history.AddResult(JobResult{Success: false})
	assert.InDelta(t, 2.0/3.0, history.SuccessRate(), 1e-9)
}
