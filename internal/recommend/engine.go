package recommend

import (
	"math"
	"sort"
	"time"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
	"github.com/jeffhong58/ai-stock-selector/pkg/config"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

// Engine turns per-symbol market context into ranked recommendation
// lists. Like the indicator engine it is pure with respect to storage:
// the orchestrator assembles inputs, the engine only scores and ranks.
type Engine struct {
	baseWeights   Weights
	buyThreshold  float64
	sellThreshold float64
	logger        *logger.Logger
}

// NewEngine creates an engine with weights and thresholds from config.
func NewEngine(cfg *config.Config, log *logger.Logger) *Engine {
	return &Engine{
		baseWeights: Weights{
			Technical:   cfg.Scoring.TechnicalWeight,
			Flow:        cfg.Scoring.FlowWeight,
			Fundamental: cfg.Scoring.FundamentalWeight,
		}.normalize(),
		buyThreshold:  cfg.Scoring.BuyThreshold,
		sellThreshold: cfg.Scoring.SellThreshold,
		logger:        log.WithField("component", "recommend"),
	}
}

// Input is everything known about one symbol on the evaluation date.
// Bar and Snapshot are mandatory; symbols without an indicator
// snapshot never reach the engine. Flow history is ascending.
type Input struct {
	Symbol    string
	Bar       *contracts.PriceBar
	Snapshot  *contracts.IndicatorSnapshot
	Flows     []contracts.InstitutionalFlow
	Margin    *contracts.MarginBalance
	Financial *contracts.FinancialStatement
}

// Generate scores and ranks all inputs for one (date, category).
// Ordering is fully deterministic: score descending, then confidence
// descending, then symbol ascending.
func (e *Engine) Generate(date time.Time, category contracts.Category, inputs []Input) []contracts.Recommendation {
	weights := e.baseWeights.ForCategory(category)

	recs := make([]contracts.Recommendation, 0, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		if in.Bar == nil || in.Snapshot == nil {
			continue
		}
		recs = append(recs, e.evaluate(date, category, weights, in))
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}
		return recs[i].Symbol < recs[j].Symbol
	})
	for i := range recs {
		recs[i].Rank = i + 1
	}

	return recs
}

func (e *Engine) evaluate(date time.Time, category contracts.Category, weights Weights, in *Input) contracts.Recommendation {
	technical := technicalScore(in.Bar, in.Snapshot)
	flow := flowScore(in.Flows, in.Margin)
	fundamental := fundamentalScore(in.Financial)
	score := weights.composite(technical, flow, fundamental)

	rec := contracts.Recommendation{
		Date:     date,
		Category: category,
		Symbol:   in.Symbol,

		Score:            score,
		Confidence:       confidence(in),
		TechnicalScore:   technical,
		FlowScore:        flow,
		FundamentalScore: fundamental,

		Rationale: buildRationale(in),

		Timeframe:   string(category),
		HoldingDays: category.HoldingDays(),
	}

	// Flags track technical momentum crossings, not the composite:
	// flow or fundamental strength alone must not raise a buy flag.
	rec.BuySignal = technical >= e.buyThreshold
	rec.SellSignal = technical <= e.sellThreshold

	rec.TargetPrice, rec.StopLoss, rec.SupportPrice, rec.ResistancePrice = priceLevels(in.Bar, in.Snapshot)

	return rec
}

// confidence reflects how much of the factor data actually existed.
// The snapshot is a precondition, so its share is the floor.
func confidence(in *Input) float64 {
	c := 0.35
	if len(in.Flows) > 0 {
		c += 0.25
	}
	if in.Margin != nil {
		c += 0.15
	}
	if in.Financial != nil {
		c += 0.25
	}
	return c
}

// priceLevels derives trade levels from the pivot band widened by
// Bollinger volatility. Missing levels fall back to fixed percentage
// bands around the close.
func priceLevels(bar *contracts.PriceBar, snap *contracts.IndicatorSnapshot) (target, stop, support, resistance float64) {
	close := bar.Close

	support = close * 0.90
	if snap.SupportLevel != nil {
		support = *snap.SupportLevel
	}
	resistance = close * 1.10
	if snap.ResistanceLevel != nil {
		resistance = *snap.ResistanceLevel
	}

	volatility := close * 0.05
	if snap.BBUpper != nil && snap.BBLower != nil {
		volatility = (*snap.BBUpper - *snap.BBLower) / 2
	}

	target = math.Max(resistance, close+volatility)
	stop = math.Min(support, close-volatility/2)
	if stop < 0 {
		stop = 0
	}
	return target, stop, support, resistance
}

// buildRationale collects the tagged signals that actually fired for
// the symbol, in a fixed factor order.
func buildRationale(in *Input) contracts.Rationale {
	rationale := contracts.Rationale{}
	bar, snap := in.Bar, in.Snapshot

	if snap.MA5 != nil && snap.MA20 != nil {
		if bar.Close > *snap.MA5 && *snap.MA5 > *snap.MA20 {
			rationale = append(rationale, contracts.MovingAverageCross{FastWindow: 5, SlowWindow: 20, Bullish: true})
		} else if bar.Close < *snap.MA5 && *snap.MA5 < *snap.MA20 {
			rationale = append(rationale, contracts.MovingAverageCross{FastWindow: 5, SlowWindow: 20, Bullish: false})
		}
	}

	if snap.RSI14 != nil {
		if *snap.RSI14 >= rsiOverbought {
			rationale = append(rationale, contracts.RSIOverbought{RSI: *snap.RSI14, Threshold: rsiOverbought})
		} else if *snap.RSI14 <= rsiOversold {
			rationale = append(rationale, contracts.RSIOversold{RSI: *snap.RSI14, Threshold: rsiOversold})
		}
	}

	if snap.MACD != nil && snap.MACDSignal != nil && snap.MACDHistogram != nil && *snap.MACDHistogram != 0 {
		rationale = append(rationale, contracts.MACDCross{
			MACD:      *snap.MACD,
			Signal:    *snap.MACDSignal,
			Histogram: *snap.MACDHistogram,
			Bullish:   *snap.MACDHistogram > 0,
		})
	}

	if snap.StochasticK != nil && snap.StochasticD != nil && *snap.StochasticK != *snap.StochasticD {
		rationale = append(rationale, contracts.StochasticCross{
			K:       *snap.StochasticK,
			D:       *snap.StochasticD,
			Bullish: *snap.StochasticK > *snap.StochasticD,
		})
	}

	if snap.BBUpper != nil && bar.Close >= *snap.BBUpper {
		rationale = append(rationale, contracts.BollingerTouch{Close: bar.Close, Band: *snap.BBUpper, UpperBand: true})
	} else if snap.BBLower != nil && bar.Close <= *snap.BBLower {
		rationale = append(rationale, contracts.BollingerTouch{Close: bar.Close, Band: *snap.BBLower, UpperBand: false})
	}

	if len(in.Flows) > 0 {
		latest := in.Flows[len(in.Flows)-1]
		if latest.TotalNet > 0 {
			rationale = append(rationale, contracts.InstitutionalNetBuy{
				ForeignNet: latest.ForeignNet,
				TrustNet:   latest.TrustNet,
				DealerNet:  latest.DealerNet,
				TotalNet:   latest.TotalNet,
			})
		} else if latest.TotalNet < 0 {
			rationale = append(rationale, contracts.InstitutionalNetSell{
				ForeignNet: latest.ForeignNet,
				TrustNet:   latest.TrustNet,
				DealerNet:  latest.DealerNet,
				TotalNet:   latest.TotalNet,
			})
		}
	}

	if in.Margin != nil && in.Margin.ShortMarginRatio >= marginPressureRatio {
		rationale = append(rationale, contracts.MarginPressure{ShortMarginRatio: in.Margin.ShortMarginRatio})
	}

	if in.Financial != nil {
		if in.Financial.ROE >= 15 && in.Financial.EPS > 0 {
			rationale = append(rationale, contracts.FundamentalStrength{
				ROE:       in.Financial.ROE,
				EPS:       in.Financial.EPS,
				DebtRatio: in.Financial.DebtRatio,
			})
		} else if in.Financial.ROE < 0 || in.Financial.EPS < 0 {
			rationale = append(rationale, contracts.FundamentalWeakness{
				ROE:       in.Financial.ROE,
				EPS:       in.Financial.EPS,
				DebtRatio: in.Financial.DebtRatio,
			})
		}
	}

	return rationale
}
