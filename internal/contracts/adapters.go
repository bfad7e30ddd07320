package contracts

import (
	"context"
	"time"
)

// Source adapters normalize upstream payloads into canonical records.
// Re-fetching the same symbol/date range must yield records that upsert
// to identical rows. Implementations self-throttle per upstream source
// and fail with the taxonomy in errors.go.

// PriceSource fetches daily OHLCV bars for one symbol.
type PriceSource interface {
	FetchPriceBars(ctx context.Context, symbol string, from, to time.Time) ([]PriceBar, error)
}

// FlowSource fetches one day of institutional flow for all symbols.
type FlowSource interface {
	FetchInstitutionalFlow(ctx context.Context, date time.Time) ([]InstitutionalFlow, error)
}

// MarginSource fetches one day of margin balances for all symbols.
type MarginSource interface {
	FetchMarginBalances(ctx context.Context, date time.Time) ([]MarginBalance, error)
}

// FundamentalSource fetches quarterly financial statements for one
// symbol.
type FundamentalSource interface {
	FetchFinancialStatements(ctx context.Context, symbol string) ([]FinancialStatement, error)
}
