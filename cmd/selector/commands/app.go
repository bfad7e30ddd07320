package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/external/mops"
	"github.com/jeffhong58/ai-stock-selector/internal/external/twse"
	"github.com/jeffhong58/ai-stock-selector/internal/indicator"
	"github.com/jeffhong58/ai-stock-selector/internal/ingest"
	"github.com/jeffhong58/ai-stock-selector/internal/pipeline"
	"github.com/jeffhong58/ai-stock-selector/internal/query"
	"github.com/jeffhong58/ai-stock-selector/internal/recommend"
	"github.com/jeffhong58/ai-stock-selector/internal/scheduler"
	"github.com/jeffhong58/ai-stock-selector/internal/scheduler/jobs"
	"github.com/jeffhong58/ai-stock-selector/internal/store"
	"github.com/jeffhong58/ai-stock-selector/pkg/config"
	"github.com/jeffhong58/ai-stock-selector/pkg/database"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
	"github.com/jeffhong58/ai-stock-selector/pkg/redis"
)

// app bundles the wired dependency graph shared by all commands.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *database.DB
	redis  *redis.Client

	store        *store.Store
	orchestrator *pipeline.Orchestrator
	query        *query.Service
}

// newApp loads config and wires the full pipeline. Migrations run on
// every start; the schema DDL is idempotent.
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to Redis (no-op client when disabled)
	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Create store and apply schema
	st := store.New(db.Pool, log)
	if err := st.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	// 6. Create external API clients
	twseClient := twse.NewClient(cfg, log)
	mopsClient := mops.NewClient(cfg, log)

	// 7. Create ingestion coordinator
	coordinator := ingest.NewCoordinator(
		twseClient, twseClient, twseClient, mopsClient,
		st.Prices, st.Flows, st.Margins, st.Financials,
		cfg, log,
	)

	// 8. Create engines and orchestrator
	orchestrator := pipeline.New(pipeline.Deps{
		Symbols:         st.Symbols,
		Prices:          st.Prices,
		Indicators:      st.Indicators,
		Flows:           st.Flows,
		Margins:         st.Margins,
		Financials:      st.Financials,
		Recommendations: st.Recommendations,
		Runs:            st.Runs,

		Ingestor:        coordinator,
		IndicatorEngine: indicator.NewEngine(),
		RecommendEngine: recommend.NewEngine(cfg, log),
		PricePruner:     st.Prices,
	}, cfg, log)

	// 9. Create query service
	querySvc := query.NewService(
		st.Recommendations, st.Indicators, st.Runs,
		redis.NewCache(redisClient, "selector"), log,
	)

	return &app{
		cfg:          cfg,
		logger:       log,
		db:           db,
		redis:        redisClient,
		store:        st,
		orchestrator: orchestrator,
		query:        querySvc,
	}, nil
}

func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.logger.WithError(err).Warn("close redis")
	}
	a.db.Close()
}

// standingJobs lists the jobs the scheduler daemon runs.
func (a *app) standingJobs() []scheduler.Job {
	return []scheduler.Job{
		jobs.NewDailyUpdateJob(a.orchestrator, a.logger),
		jobs.NewFundamentalsJob(a.orchestrator, a.logger),
		jobs.NewMaintenanceJob(a.orchestrator, a.logger),
	}
}

// newScheduler registers the standing jobs on a fresh scheduler.
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.logger)
	for _, job := range a.standingJobs() {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// parseDateFlag parses a --date value, defaulting to today.
func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", value)
	}
	return date, nil
}
