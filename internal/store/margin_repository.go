package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// MarginRepository implements contracts.MarginRepository.
type MarginRepository struct {
	pool *pgxpool.Pool
}

// NewMarginRepository creates a new margin balance repository.
func NewMarginRepository(pool *pgxpool.Pool) *MarginRepository {
	return &MarginRepository{pool: pool}
}

const marginColumns = `symbol, trade_date,
	margin_buy, margin_sell, margin_balance,
	short_sell, short_cover, short_balance,
	short_margin_ratio`

// UpsertBatch upserts one day of margin rows, totaling insert and
// update counts.
func (r *MarginRepository) UpsertBatch(ctx context.Context, balances []contracts.MarginBalance) (inserted, updated int, err error) {
	query := `
		INSERT INTO margin_balances (` + marginColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			margin_buy = EXCLUDED.margin_buy,
			margin_sell = EXCLUDED.margin_sell,
			margin_balance = EXCLUDED.margin_balance,
			short_sell = EXCLUDED.short_sell,
			short_cover = EXCLUDED.short_cover,
			short_balance = EXCLUDED.short_balance,
			short_margin_ratio = EXCLUDED.short_margin_ratio
		RETURNING (xmax = 0)
	`

	for i := range balances {
		b := &balances[i]
		var wasInsert bool
		err := r.pool.QueryRow(ctx, query,
			b.Symbol, b.TradeDate,
			b.MarginBuy, b.MarginSell, b.MarginBalance,
			b.ShortSell, b.ShortCover, b.ShortBalance,
			b.ShortMarginRatio,
		).Scan(&wasInsert)
		if err != nil {
			return inserted, updated, fmt.Errorf("upsert margin %s %s: %w",
				b.Symbol, b.TradeDate.Format("2006-01-02"), err)
		}
		if wasInsert {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}

// GetByDate retrieves the margin row for a specific symbol and date.
func (r *MarginRepository) GetByDate(ctx context.Context, symbol string, date time.Time) (*contracts.MarginBalance, error) {
	query := `SELECT ` + marginColumns + ` FROM margin_balances
		WHERE symbol = $1 AND trade_date = $2`

	var b contracts.MarginBalance
	err := r.pool.QueryRow(ctx, query, symbol, date).Scan(
		&b.Symbol, &b.TradeDate,
		&b.MarginBuy, &b.MarginSell, &b.MarginBalance,
		&b.ShortSell, &b.ShortCover, &b.ShortBalance,
		&b.ShortMarginRatio,
	)
	if noRows(err) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
