package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// SymbolRepository implements contracts.SymbolRepository.
type SymbolRepository struct {
	pool *pgxpool.Pool
}

// NewSymbolRepository creates a new symbol repository.
func NewSymbolRepository(pool *pgxpool.Pool) *SymbolRepository {
	return &SymbolRepository{pool: pool}
}

// Upsert inserts or refreshes one listed symbol.
func (r *SymbolRepository) Upsert(ctx context.Context, symbol *contracts.Symbol) error {
	query := `
		INSERT INTO stocks (symbol, name, market, industry, listing_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			market = EXCLUDED.market,
			industry = EXCLUDED.industry,
			listing_date = EXCLUDED.listing_date,
			is_active = EXCLUDED.is_active,
			updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query,
		symbol.Symbol, symbol.Name, symbol.Market, symbol.Industry,
		symbol.ListingDate, symbol.IsActive,
	)
	if err != nil {
		return fmt.Errorf("upsert symbol %s: %w", symbol.Symbol, err)
	}
	return nil
}

// GetActive returns all active symbols ordered by code, the canonical
// iteration order for batch runs.
func (r *SymbolRepository) GetActive(ctx context.Context) ([]contracts.Symbol, error) {
	query := `
		SELECT symbol, name, market, industry, listing_date, is_active, created_at, updated_at
		FROM stocks
		WHERE is_active
		ORDER BY symbol ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []contracts.Symbol
	for rows.Next() {
		var s contracts.Symbol
		if err := rows.Scan(
			&s.Symbol, &s.Name, &s.Market, &s.Industry,
			&s.ListingDate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// Deactivate marks a delisted symbol inactive without deleting its
// history.
func (r *SymbolRepository) Deactivate(ctx context.Context, symbol string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE stocks SET is_active = false, updated_at = now() WHERE symbol = $1`, symbol)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deactivate %s: %w", symbol, contracts.ErrNotFound)
	}
	return nil
}

// noRows maps pgx's sentinel onto the repository taxonomy.
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
