package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// FinancialRepository implements contracts.FinancialRepository.
type FinancialRepository struct {
	pool *pgxpool.Pool
}

// NewFinancialRepository creates a new financial statement repository.
func NewFinancialRepository(pool *pgxpool.Pool) *FinancialRepository {
	return &FinancialRepository{pool: pool}
}

const financialColumns = `symbol, year, quarter, report_type,
	revenue, gross_profit, operating_income, net_income, eps,
	total_assets, total_liabilities, shareholder_equity, book_value_per_share,
	operating_cash_flow, investing_cash_flow, financing_cash_flow,
	roe, roa, debt_ratio, current_ratio, reported_at`

// Upsert inserts or refreshes one quarterly filing.
func (r *FinancialRepository) Upsert(ctx context.Context, s *contracts.FinancialStatement) error {
	query := `
		INSERT INTO financial_statements (` + financialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (symbol, year, quarter, report_type) DO UPDATE SET
			revenue = EXCLUDED.revenue,
			gross_profit = EXCLUDED.gross_profit,
			operating_income = EXCLUDED.operating_income,
			net_income = EXCLUDED.net_income,
			eps = EXCLUDED.eps,
			total_assets = EXCLUDED.total_assets,
			total_liabilities = EXCLUDED.total_liabilities,
			shareholder_equity = EXCLUDED.shareholder_equity,
			book_value_per_share = EXCLUDED.book_value_per_share,
			operating_cash_flow = EXCLUDED.operating_cash_flow,
			investing_cash_flow = EXCLUDED.investing_cash_flow,
			financing_cash_flow = EXCLUDED.financing_cash_flow,
			roe = EXCLUDED.roe,
			roa = EXCLUDED.roa,
			debt_ratio = EXCLUDED.debt_ratio,
			current_ratio = EXCLUDED.current_ratio,
			reported_at = EXCLUDED.reported_at
	`

	_, err := r.pool.Exec(ctx, query,
		s.Symbol, s.Year, s.Quarter, s.ReportType,
		s.Revenue, s.GrossProfit, s.OperatingIncome, s.NetIncome, s.EPS,
		s.TotalAssets, s.TotalLiabilities, s.ShareholderEquity, s.BookValuePerShare,
		s.OperatingCashFlow, s.InvestingCashFlow, s.FinancingCashFlow,
		s.ROE, s.ROA, s.DebtRatio, s.CurrentRatio, s.ReportedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert financials %s %dQ%d: %w", s.Symbol, s.Year, s.Quarter, err)
	}
	return nil
}

// GetLatest retrieves the most recent filed quarter for a symbol.
func (r *FinancialRepository) GetLatest(ctx context.Context, symbol string) (*contracts.FinancialStatement, error) {
	query := `SELECT ` + financialColumns + ` FROM financial_statements
		WHERE symbol = $1
		ORDER BY year DESC, quarter DESC
		LIMIT 1`

	var s contracts.FinancialStatement
	err := r.pool.QueryRow(ctx, query, symbol).Scan(
		&s.Symbol, &s.Year, &s.Quarter, &s.ReportType,
		&s.Revenue, &s.GrossProfit, &s.OperatingIncome, &s.NetIncome, &s.EPS,
		&s.TotalAssets, &s.TotalLiabilities, &s.ShareholderEquity, &s.BookValuePerShare,
		&s.OperatingCashFlow, &s.InvestingCashFlow, &s.FinancingCashFlow,
		&s.ROE, &s.ROA, &s.DebtRatio, &s.CurrentRatio, &s.ReportedAt,
	)
	if noRows(err) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
