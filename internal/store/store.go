package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

// Store bundles every repository over one connection pool. Individual
// repositories stay independently constructible for tests.
type Store struct {
	Symbols         *SymbolRepository
	Prices          *PriceRepository
	Indicators      *IndicatorRepository
	Flows           *FlowRepository
	Margins         *MarginRepository
	Financials      *FinancialRepository
	Recommendations *RecommendationRepository
	Runs            *RunRepository

	pool   *pgxpool.Pool
	logger *logger.Logger
}

// New creates a store over the given pool.
func New(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{
		Symbols:         NewSymbolRepository(pool),
		Prices:          NewPriceRepository(pool),
		Indicators:      NewIndicatorRepository(pool),
		Flows:           NewFlowRepository(pool),
		Margins:         NewMarginRepository(pool),
		Financials:      NewFinancialRepository(pool),
		Recommendations: NewRecommendationRepository(pool),
		Runs:            NewRunRepository(pool),
		pool:            pool,
		logger:          log.WithField("component", "store"),
	}
}

// Migrate applies the schema. Idempotent; safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	s.logger.Info("schema up to date")
	return nil
}
