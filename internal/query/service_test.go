package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
	"github.com/jeffhong58/ai-stock-selector/pkg/config"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
	"github.com/jeffhong58/ai-stock-selector/pkg/redis"
)

type fakeRecommendationRepo struct {
	recs  []contracts.Recommendation
	calls int
}

func (f *fakeRecommendationRepo) UpsertBatch(context.Context, []contracts.Recommendation) error {
	return nil
}

func (f *fakeRecommendationRepo) List(_ context.Context, _ time.Time, _ contracts.Category, _ int) ([]contracts.Recommendation, error) {
	f.calls++
	return f.recs, nil
}

func (f *fakeRecommendationRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type fakeIndicatorRepo struct {
	snapshots []contracts.IndicatorSnapshot
}

func (f *fakeIndicatorRepo) Upsert(context.Context, *contracts.IndicatorSnapshot) error { return nil }

func (f *fakeIndicatorRepo) GetByDate(context.Context, string, time.Time) (*contracts.IndicatorSnapshot, error) {
	return nil, contracts.ErrNotFound
}

func (f *fakeIndicatorRepo) GetRange(context.Context, string, time.Time, time.Time) ([]contracts.IndicatorSnapshot, error) {
	return f.snapshots, nil
}

type fakeRunRepo struct {
	run *contracts.UpdateRun
}

func (f *fakeRunRepo) Create(context.Context, *contracts.UpdateRun) error { return nil }
func (f *fakeRunRepo) Update(context.Context, *contracts.UpdateRun) error { return nil }

func (f *fakeRunRepo) GetByDate(context.Context, time.Time) (*contracts.UpdateRun, error) {
	if f.run == nil {
		return nil, contracts.ErrNotFound
	}
	return f.run, nil
}

func (f *fakeRunRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func testService(t *testing.T, recRepo *fakeRecommendationRepo, runRepo *fakeRunRepo) *Service {
	t.Helper()
	cfg := &config.Config{LogLevel: "error", LogFormat: "console"}

	client, err := redis.New(cfg) // disabled: cache no-ops
	require.NoError(t, err)
	cache := redis.NewCache(client, "selector")

	return NewService(recRepo, &fakeIndicatorRepo{}, runRepo, cache, logger.New(cfg))
}

func TestListRecommendationsNotReadyWithoutRun(t *testing.T) {
	service := testService(t, &fakeRecommendationRepo{}, &fakeRunRepo{})

	_, err := service.ListRecommendations(context.Background(),
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), contracts.CategoryShortTerm, 10)
	assert.ErrorIs(t, err, contracts.ErrNotReady)
}

func TestListRecommendationsNotReadyWhileProcessing(t *testing.T) {
	runRepo := &fakeRunRepo{run: &contracts.UpdateRun{Status: contracts.RunProcessing}}
	service := testService(t, &fakeRecommendationRepo{}, runRepo)

	_, err := service.ListRecommendations(context.Background(),
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), contracts.CategoryShortTerm, 10)
	assert.ErrorIs(t, err, contracts.ErrNotReady)

	runRepo.run.Status = contracts.RunFailed
	_, err = service.ListRecommendations(context.Background(),
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), contracts.CategoryShortTerm, 10)
	assert.ErrorIs(t, err, contracts.ErrNotReady, "failed runs are not servable")
}

func TestListRecommendationsServesTerminalRuns(t *testing.T) {
	recs := []contracts.Recommendation{
		{Symbol: "2330", Rank: 1, Score: 85, Rationale: contracts.Rationale{}},
	}

	for _, status := range []contracts.RunStatus{contracts.RunCompleted, contracts.RunCompletedWithErrors} {
		recRepo := &fakeRecommendationRepo{recs: recs}
		service := testService(t, recRepo, &fakeRunRepo{run: &contracts.UpdateRun{Status: status}})

		got, err := service.ListRecommendations(context.Background(),
			time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), contracts.CategoryShortTerm, 10)
		require.NoError(t, err, "status %s should serve", status)
		assert.Len(t, got, 1)
		assert.Equal(t, 1, recRepo.calls)
	}
}

func TestListRecommendationsRejectsUnknownCategory(t *testing.T) {
	service := testService(t, &fakeRecommendationRepo{}, &fakeRunRepo{})

	_, err := service.ListRecommendations(context.Background(), time.Now(), contracts.Category("bogus"), 10)
	assert.Error(t, err)
}

func TestGetIndicatorHistoryValidatesRange(t *testing.T) {
	service := testService(t, &fakeRecommendationRepo{}, &fakeRunRepo{})

	from := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	_, err := service.GetIndicatorHistory(context.Background(), "2330", from, from.AddDate(0, 0, -5))
	assert.Error(t, err, "inverted range rejected")

	_, err = service.GetIndicatorHistory(context.Background(), "2330", from, from)
	assert.NoError(t, err)
}

func TestGetRunStatus(t *testing.T) {
	runRepo := &fakeRunRepo{run: &contracts.UpdateRun{Status: contracts.RunCompleted, Processed: 42}}
	service := testService(t, &fakeRecommendationRepo{}, runRepo)

	run, err := service.GetRunStatus(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 42, run.Processed)
}
