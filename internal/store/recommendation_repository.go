package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// RecommendationRepository implements
// contracts.RecommendationRepository. Rationale signal lists are
// stored as jsonb through their tagged-envelope codec.
type RecommendationRepository struct {
	pool *pgxpool.Pool
}

// NewRecommendationRepository creates a new recommendation repository.
func NewRecommendationRepository(pool *pgxpool.Pool) *RecommendationRepository {
	return &RecommendationRepository{pool: pool}
}

const recommendationColumns = `recommendation_date, category, symbol,
	score, rank, confidence,
	technical_score, flow_score, fundamental_score,
	buy_signal, sell_signal,
	target_price, stop_loss, support_price, resistance_price,
	rationale, timeframe, expected_holding_days`

// UpsertBatch upserts one category's ranked list for a date.
func (r *RecommendationRepository) UpsertBatch(ctx context.Context, recs []contracts.Recommendation) error {
	query := `
		INSERT INTO recommendations (` + recommendationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (recommendation_date, category, symbol) DO UPDATE SET
			score = EXCLUDED.score,
			rank = EXCLUDED.rank,
			confidence = EXCLUDED.confidence,
			technical_score = EXCLUDED.technical_score,
			flow_score = EXCLUDED.flow_score,
			fundamental_score = EXCLUDED.fundamental_score,
			buy_signal = EXCLUDED.buy_signal,
			sell_signal = EXCLUDED.sell_signal,
			target_price = EXCLUDED.target_price,
			stop_loss = EXCLUDED.stop_loss,
			support_price = EXCLUDED.support_price,
			resistance_price = EXCLUDED.resistance_price,
			rationale = EXCLUDED.rationale,
			timeframe = EXCLUDED.timeframe,
			expected_holding_days = EXCLUDED.expected_holding_days
	`

	for i := range recs {
		rec := &recs[i]
		rationale, err := json.Marshal(rec.Rationale)
		if err != nil {
			return fmt.Errorf("encode rationale %s: %w", rec.Symbol, err)
		}
		_, err = r.pool.Exec(ctx, query,
			rec.Date, rec.Category, rec.Symbol,
			rec.Score, rec.Rank, rec.Confidence,
			rec.TechnicalScore, rec.FlowScore, rec.FundamentalScore,
			rec.BuySignal, rec.SellSignal,
			rec.TargetPrice, rec.StopLoss, rec.SupportPrice, rec.ResistancePrice,
			rationale, rec.Timeframe, rec.HoldingDays,
		)
		if err != nil {
			return fmt.Errorf("upsert recommendation %s/%s/%s: %w",
				rec.Date.Format("2006-01-02"), rec.Category, rec.Symbol, err)
		}
	}
	return nil
}

// List returns the ranked recommendations for a date and category,
// best first. A zero limit returns the full list.
func (r *RecommendationRepository) List(ctx context.Context, date time.Time, category contracts.Category, limit int) ([]contracts.Recommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations
		WHERE recommendation_date = $1 AND category = $2
		ORDER BY rank ASC`
	args := []any{date, category}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []contracts.Recommendation
	for rows.Next() {
		var rec contracts.Recommendation
		var rationale []byte
		if err := rows.Scan(
			&rec.Date, &rec.Category, &rec.Symbol,
			&rec.Score, &rec.Rank, &rec.Confidence,
			&rec.TechnicalScore, &rec.FlowScore, &rec.FundamentalScore,
			&rec.BuySignal, &rec.SellSignal,
			&rec.TargetPrice, &rec.StopLoss, &rec.SupportPrice, &rec.ResistancePrice,
			&rationale, &rec.Timeframe, &rec.HoldingDays,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(rationale, &rec.Rationale); err != nil {
			return nil, fmt.Errorf("decode rationale %s: %w", rec.Symbol, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteOlderThan removes recommendations dated before cutoff and
// reports how many rows went away.
func (r *RecommendationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM recommendations WHERE recommendation_date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
