package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// FlowRepository implements contracts.FlowRepository.
type FlowRepository struct {
	pool *pgxpool.Pool
}

// NewFlowRepository creates a new institutional flow repository.
func NewFlowRepository(pool *pgxpool.Pool) *FlowRepository {
	return &FlowRepository{pool: pool}
}

const flowColumns = `symbol, trade_date,
	foreign_buy, foreign_sell, foreign_net,
	trust_buy, trust_sell, trust_net,
	dealer_buy, dealer_sell, dealer_net,
	total_net`

// UpsertBatch upserts one day of flow rows, totaling insert and update
// counts.
func (r *FlowRepository) UpsertBatch(ctx context.Context, flows []contracts.InstitutionalFlow) (inserted, updated int, err error) {
	query := `
		INSERT INTO institutional_flows (` + flowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			foreign_buy = EXCLUDED.foreign_buy,
			foreign_sell = EXCLUDED.foreign_sell,
			foreign_net = EXCLUDED.foreign_net,
			trust_buy = EXCLUDED.trust_buy,
			trust_sell = EXCLUDED.trust_sell,
			trust_net = EXCLUDED.trust_net,
			dealer_buy = EXCLUDED.dealer_buy,
			dealer_sell = EXCLUDED.dealer_sell,
			dealer_net = EXCLUDED.dealer_net,
			total_net = EXCLUDED.total_net
		RETURNING (xmax = 0)
	`

	for i := range flows {
		f := &flows[i]
		var wasInsert bool
		err := r.pool.QueryRow(ctx, query,
			f.Symbol, f.TradeDate,
			f.ForeignBuy, f.ForeignSell, f.ForeignNet,
			f.TrustBuy, f.TrustSell, f.TrustNet,
			f.DealerBuy, f.DealerSell, f.DealerNet,
			f.TotalNet,
		).Scan(&wasInsert)
		if err != nil {
			return inserted, updated, fmt.Errorf("upsert flow %s %s: %w",
				f.Symbol, f.TradeDate.Format("2006-01-02"), err)
		}
		if wasInsert {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}

func scanFlow(row interface{ Scan(...any) error }, f *contracts.InstitutionalFlow) error {
	return row.Scan(
		&f.Symbol, &f.TradeDate,
		&f.ForeignBuy, &f.ForeignSell, &f.ForeignNet,
		&f.TrustBuy, &f.TrustSell, &f.TrustNet,
		&f.DealerBuy, &f.DealerSell, &f.DealerNet,
		&f.TotalNet,
	)
}

// GetByDate retrieves the flow row for a specific symbol and date.
func (r *FlowRepository) GetByDate(ctx context.Context, symbol string, date time.Time) (*contracts.InstitutionalFlow, error) {
	query := `SELECT ` + flowColumns + ` FROM institutional_flows
		WHERE symbol = $1 AND trade_date = $2`

	var f contracts.InstitutionalFlow
	err := scanFlow(r.pool.QueryRow(ctx, query, symbol, date), &f)
	if noRows(err) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetRange retrieves flow rows for a symbol within [from, to],
// ascending by date.
func (r *FlowRepository) GetRange(ctx context.Context, symbol string, from, to time.Time) ([]contracts.InstitutionalFlow, error) {
	query := `SELECT ` + flowColumns + ` FROM institutional_flows
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flows []contracts.InstitutionalFlow
	for rows.Next() {
		var f contracts.InstitutionalFlow
		if err := scanFlow(rows, &f); err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}
