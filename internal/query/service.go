package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
	"github.com/jeffhong58/ai-stock-selector/pkg/redis"
)

// recommendationTTL bounds cache staleness; lists only change once per
// daily run, so an hour is conservative.
const recommendationTTL = time.Hour

// Service is the read side of the pipeline: ranked lists, indicator
// history, and run status. Recommendation lists are cached in Redis;
// with Redis disabled every read falls through to Postgres.
type Service struct {
	recommendations contracts.RecommendationRepository
	indicators      contracts.IndicatorRepository
	runs            contracts.RunRepository

	cache  *redis.Cache
	logger *logger.Logger
}

// NewService creates a query service.
func NewService(
	recommendations contracts.RecommendationRepository,
	indicators contracts.IndicatorRepository,
	runs contracts.RunRepository,
	cache *redis.Cache,
	log *logger.Logger,
) *Service {
	return &Service{
		recommendations: recommendations,
		indicators:      indicators,
		runs:            runs,
		cache:           cache,
		logger:          log.WithField("component", "query"),
	}
}

// ListRecommendations returns the ranked list for a (date, category).
// Until the date's run reaches a servable terminal state the list is
// not authoritative and the call returns ErrNotReady.
func (s *Service) ListRecommendations(ctx context.Context, date time.Time, category contracts.Category, limit int) ([]contracts.Recommendation, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	run, err := s.runs.GetByDate(ctx, date)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, fmt.Errorf("%w: no run for %s", contracts.ErrNotReady, date.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("check run status: %w", err)
	}
	switch run.Status {
	case contracts.RunCompleted, contracts.RunCompletedWithErrors:
		// servable
	default:
		return nil, fmt.Errorf("%w: run for %s is %s",
			contracts.ErrNotReady, date.Format("2006-01-02"), run.Status)
	}

	cacheKey := fmt.Sprintf("recommendations:%s:%s:%d", date.Format("2006-01-02"), category, limit)
	var cached []contracts.Recommendation
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	recs, err := s.recommendations.List(ctx, date, category, limit)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKey, recs, recommendationTTL); err != nil {
		s.logger.WithError(err).Warn("cache recommendation list")
	}
	return recs, nil
}

// GetIndicatorHistory returns a symbol's snapshots over [from, to],
// ascending.
func (s *Service) GetIndicatorHistory(ctx context.Context, symbol string, from, to time.Time) ([]contracts.IndicatorSnapshot, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s before start %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return s.indicators.GetRange(ctx, symbol, from, to)
}

// GetRunStatus returns the newest run record for a date.
func (s *Service) GetRunStatus(ctx context.Context, date time.Time) (*contracts.UpdateRun, error) {
	return s.runs.GetByDate(ctx, date)
}
