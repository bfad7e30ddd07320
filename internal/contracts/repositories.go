package contracts

import (
	"context"
	"time"
)

// Storage contracts owned by the time-series store. All writes are
// natural-key upserts: insert if absent, otherwise overwrite value
// fields without ever duplicating a row.

// SymbolRepository stores listed equities.
type SymbolRepository interface {
	Upsert(ctx context.Context, symbol *Symbol) error
	GetActive(ctx context.Context) ([]Symbol, error)
	Deactivate(ctx context.Context, symbol string) error
}

// PriceRepository stores daily price bars, physically partitioned by
// calendar year. Partitioning is invisible to callers: natural-key and
// ordering semantics hold across partition boundaries.
type PriceRepository interface {
	Upsert(ctx context.Context, bar *PriceBar) (inserted bool, err error)
	UpsertBatch(ctx context.Context, bars []PriceBar) (inserted, updated int, err error)

	// FetchHistory returns up to windowSize bars ending at or before
	// uptoDate, ordered by trade date ascending. Shorter histories
	// return fewer bars, never padding.
	FetchHistory(ctx context.Context, symbol string, uptoDate time.Time, windowSize int) ([]PriceBar, error)

	GetByDate(ctx context.Context, symbol string, date time.Time) (*PriceBar, error)
	GetLatest(ctx context.Context, symbol string) (*PriceBar, error)
}

// IndicatorRepository stores derived indicator snapshots.
type IndicatorRepository interface {
	Upsert(ctx context.Context, snapshot *IndicatorSnapshot) error
	GetByDate(ctx context.Context, symbol string, date time.Time) (*IndicatorSnapshot, error)
	GetRange(ctx context.Context, symbol string, from, to time.Time) ([]IndicatorSnapshot, error)
}

// FlowRepository stores institutional flow rows.
type FlowRepository interface {
	UpsertBatch(ctx context.Context, flows []InstitutionalFlow) (inserted, updated int, err error)
	GetByDate(ctx context.Context, symbol string, date time.Time) (*InstitutionalFlow, error)
	GetRange(ctx context.Context, symbol string, from, to time.Time) ([]InstitutionalFlow, error)
}

// MarginRepository stores margin balance rows.
type MarginRepository interface {
	UpsertBatch(ctx context.Context, balances []MarginBalance) (inserted, updated int, err error)
	GetByDate(ctx context.Context, symbol string, date time.Time) (*MarginBalance, error)
}

// FinancialRepository stores quarterly statements.
type FinancialRepository interface {
	Upsert(ctx context.Context, statement *FinancialStatement) error
	GetLatest(ctx context.Context, symbol string) (*FinancialStatement, error)
}

// RecommendationRepository stores ranked recommendations.
type RecommendationRepository interface {
	UpsertBatch(ctx context.Context, recs []Recommendation) error
	List(ctx context.Context, date time.Time, category Category, limit int) ([]Recommendation, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunRepository stores the append-only batch audit log.
type RunRepository interface {
	Create(ctx context.Context, run *UpdateRun) error
	Update(ctx context.Context, run *UpdateRun) error
	GetByDate(ctx context.Context, date time.Time) (*UpdateRun, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
