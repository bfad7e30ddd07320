package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository over the
// range-partitioned daily_prices table. Partitions are created lazily
// per calendar year; callers never see them.
type PriceRepository struct {
	pool *pgxpool.Pool

	mu              sync.Mutex
	knownPartitions map[int]struct{}
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{
		pool:            pool,
		knownPartitions: make(map[int]struct{}),
	}
}

// ensurePartition creates the yearly partition covering date if it
// does not exist yet. CREATE TABLE IF NOT EXISTS makes this safe under
// concurrent writers; the local set just skips repeat DDL round-trips.
func (r *PriceRepository) ensurePartition(ctx context.Context, date time.Time) error {
	year := date.Year()

	r.mu.Lock()
	_, known := r.knownPartitions[year]
	r.mu.Unlock()
	if known {
		return nil
	}

	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS daily_prices_y%d PARTITION OF daily_prices
			FOR VALUES FROM ('%d-01-01') TO ('%d-01-01')`,
		year, year, year+1,
	)
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create partition for %d: %w", year, err)
	}

	r.mu.Lock()
	r.knownPartitions[year] = struct{}{}
	r.mu.Unlock()
	return nil
}

// DropPartitionsBefore drops whole yearly partitions older than
// cutoffYear and returns how many were dropped. Dropping a child table
// is the retention path for prices; row-level deletes on a partitioned
// table of this size are far more expensive.
func (r *PriceRepository) DropPartitionsBefore(ctx context.Context, cutoffYear int) (int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tablename FROM pg_tables
		 WHERE schemaname = current_schema() AND tablename LIKE 'daily_prices_y%'`)
	if err != nil {
		return 0, fmt.Errorf("list price partitions: %w", err)
	}

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan partition name: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("list price partitions: %w", err)
	}

	dropped := 0
	for _, name := range names {
		var year int
		if _, err := fmt.Sscanf(name, "daily_prices_y%d", &year); err != nil {
			continue
		}
		if year >= cutoffYear {
			continue
		}

		if _, err := r.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name)); err != nil {
			return dropped, fmt.Errorf("drop partition %s: %w", name, err)
		}

		r.mu.Lock()
		delete(r.knownPartitions, year)
		r.mu.Unlock()
		dropped++
	}
	return dropped, nil
}

// Upsert inserts or overwrites one bar, reporting whether the row was
// newly inserted. xmax = 0 on the returned row distinguishes a fresh
// insert from a conflict update.
func (r *PriceRepository) Upsert(ctx context.Context, bar *contracts.PriceBar) (bool, error) {
	if err := r.ensurePartition(ctx, bar.TradeDate); err != nil {
		return false, err
	}

	query := `
		INSERT INTO daily_prices
			(symbol, trade_date, open, high, low, close, adj_close, volume, turnover, change, change_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume,
			turnover = EXCLUDED.turnover,
			change = EXCLUDED.change,
			change_pct = EXCLUDED.change_pct
		RETURNING (xmax = 0)
	`

	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		bar.Symbol, bar.TradeDate, bar.Open, bar.High, bar.Low, bar.Close,
		bar.AdjClose, bar.Volume, bar.Turnover, bar.Change, bar.ChangePct,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert price %s %s: %w",
			bar.Symbol, bar.TradeDate.Format("2006-01-02"), err)
	}
	return inserted, nil
}

// UpsertBatch upserts bars one by one, totaling insert and update
// counts for the run audit record.
func (r *PriceRepository) UpsertBatch(ctx context.Context, bars []contracts.PriceBar) (inserted, updated int, err error) {
	for i := range bars {
		wasInsert, err := r.Upsert(ctx, &bars[i])
		if err != nil {
			return inserted, updated, err
		}
		if wasInsert {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}

const priceColumns = `symbol, trade_date, open, high, low, close, adj_close, volume, turnover, change, change_pct`

func scanPriceBar(row interface{ Scan(...any) error }, p *contracts.PriceBar) error {
	return row.Scan(
		&p.Symbol, &p.TradeDate, &p.Open, &p.High, &p.Low, &p.Close,
		&p.AdjClose, &p.Volume, &p.Turnover, &p.Change, &p.ChangePct,
	)
}

// FetchHistory returns up to windowSize bars ending at or before
// uptoDate, ascending. A subquery picks the newest bars, the outer
// query restores chronological order.
func (r *PriceRepository) FetchHistory(ctx context.Context, symbol string, uptoDate time.Time, windowSize int) ([]contracts.PriceBar, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM (
			SELECT %s
			FROM daily_prices
			WHERE symbol = $1 AND trade_date <= $2
			ORDER BY trade_date DESC
			LIMIT $3
		) recent
		ORDER BY trade_date ASC
	`, priceColumns, priceColumns)

	rows, err := r.pool.Query(ctx, query, symbol, uptoDate, windowSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var p contracts.PriceBar
		if err := scanPriceBar(rows, &p); err != nil {
			return nil, err
		}
		bars = append(bars, p)
	}
	return bars, rows.Err()
}

// GetByDate retrieves the bar for a specific symbol and date.
func (r *PriceRepository) GetByDate(ctx context.Context, symbol string, date time.Time) (*contracts.PriceBar, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM daily_prices
		WHERE symbol = $1 AND trade_date = $2
	`, priceColumns)

	var p contracts.PriceBar
	err := scanPriceBar(r.pool.QueryRow(ctx, query, symbol, date), &p)
	if noRows(err) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetLatest retrieves the most recent bar for a symbol.
func (r *PriceRepository) GetLatest(ctx context.Context, symbol string) (*contracts.PriceBar, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM daily_prices
		WHERE symbol = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`, priceColumns)

	var p contracts.PriceBar
	err := scanPriceBar(r.pool.QueryRow(ctx, query, symbol), &p)
	if noRows(err) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
