package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// IndicatorRepository implements contracts.IndicatorRepository.
// Indicator columns are nullable: snapshots legitimately carry nil for
// windows the symbol's history cannot fill yet.
type IndicatorRepository struct {
	pool *pgxpool.Pool
}

// NewIndicatorRepository creates a new indicator repository.
func NewIndicatorRepository(pool *pgxpool.Pool) *IndicatorRepository {
	return &IndicatorRepository{pool: pool}
}

const indicatorColumns = `symbol, trade_date,
	ma_5, ma_10, ma_20, ma_60, ma_120, ma_240,
	ema_12, ema_26, rsi_14,
	macd, macd_signal, macd_histogram,
	stochastic_k, stochastic_d,
	bb_upper, bb_middle, bb_lower,
	volume_ma_5, volume_ma_20,
	support_level, resistance_level`

// Upsert inserts or overwrites one snapshot.
func (r *IndicatorRepository) Upsert(ctx context.Context, s *contracts.IndicatorSnapshot) error {
	query := `
		INSERT INTO technical_indicators (` + indicatorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			ma_5 = EXCLUDED.ma_5,
			ma_10 = EXCLUDED.ma_10,
			ma_20 = EXCLUDED.ma_20,
			ma_60 = EXCLUDED.ma_60,
			ma_120 = EXCLUDED.ma_120,
			ma_240 = EXCLUDED.ma_240,
			ema_12 = EXCLUDED.ema_12,
			ema_26 = EXCLUDED.ema_26,
			rsi_14 = EXCLUDED.rsi_14,
			macd = EXCLUDED.macd,
			macd_signal = EXCLUDED.macd_signal,
			macd_histogram = EXCLUDED.macd_histogram,
			stochastic_k = EXCLUDED.stochastic_k,
			stochastic_d = EXCLUDED.stochastic_d,
			bb_upper = EXCLUDED.bb_upper,
			bb_middle = EXCLUDED.bb_middle,
			bb_lower = EXCLUDED.bb_lower,
			volume_ma_5 = EXCLUDED.volume_ma_5,
			volume_ma_20 = EXCLUDED.volume_ma_20,
			support_level = EXCLUDED.support_level,
			resistance_level = EXCLUDED.resistance_level
	`

	_, err := r.pool.Exec(ctx, query,
		s.Symbol, s.TradeDate,
		s.MA5, s.MA10, s.MA20, s.MA60, s.MA120, s.MA240,
		s.EMA12, s.EMA26, s.RSI14,
		s.MACD, s.MACDSignal, s.MACDHistogram,
		s.StochasticK, s.StochasticD,
		s.BBUpper, s.BBMiddle, s.BBLower,
		s.VolumeMA5, s.VolumeMA20,
		s.SupportLevel, s.ResistanceLevel,
	)
	if err != nil {
		return fmt.Errorf("upsert indicators %s %s: %w",
			s.Symbol, s.TradeDate.Format("2006-01-02"), err)
	}
	return nil
}

func scanIndicator(row interface{ Scan(...any) error }, s *contracts.IndicatorSnapshot) error {
	return row.Scan(
		&s.Symbol, &s.TradeDate,
		&s.MA5, &s.MA10, &s.MA20, &s.MA60, &s.MA120, &s.MA240,
		&s.EMA12, &s.EMA26, &s.RSI14,
		&s.MACD, &s.MACDSignal, &s.MACDHistogram,
		&s.StochasticK, &s.StochasticD,
		&s.BBUpper, &s.BBMiddle, &s.BBLower,
		&s.VolumeMA5, &s.VolumeMA20,
		&s.SupportLevel, &s.ResistanceLevel,
	)
}

// GetByDate retrieves the snapshot for a specific symbol and date.
func (r *IndicatorRepository) GetByDate(ctx context.Context, symbol string, date time.Time) (*contracts.IndicatorSnapshot, error) {
	query := `SELECT ` + indicatorColumns + ` FROM technical_indicators
		WHERE symbol = $1 AND trade_date = $2`

	var s contracts.IndicatorSnapshot
	err := scanIndicator(r.pool.QueryRow(ctx, query, symbol, date), &s)
	if noRows(err) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetRange retrieves snapshots for a symbol within [from, to],
// ascending by date.
func (r *IndicatorRepository) GetRange(ctx context.Context, symbol string, from, to time.Time) ([]contracts.IndicatorSnapshot, error) {
	query := `SELECT ` + indicatorColumns + ` FROM technical_indicators
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []contracts.IndicatorSnapshot
	for rows.Next() {
		var s contracts.IndicatorSnapshot
		if err := scanIndicator(rows, &s); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
