package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
	"github.com/jeffhong58/ai-stock-selector/pkg/config"
	"github.com/jeffhong58/ai-stock-selector/pkg/logger"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := &config.Config{LogLevel: "error", LogFormat: "console"}
	cfg.Scoring.TechnicalWeight = 0.40
	cfg.Scoring.FlowWeight = 0.35
	cfg.Scoring.FundamentalWeight = 0.25
	cfg.Scoring.BuyThreshold = 70
	cfg.Scoring.SellThreshold = 30
	return NewEngine(cfg, logger.New(cfg))
}

func ptr(v float64) *float64 { return &v }

func bullishInput(symbol string) Input {
	return Input{
		Symbol: symbol,
		Bar:    &contracts.PriceBar{Symbol: symbol, Close: 105, High: 106, Low: 103},
		Snapshot: &contracts.IndicatorSnapshot{
			Symbol:          symbol,
			MA5:             ptr(103),
			MA20:            ptr(100),
			RSI14:           ptr(62),
			MACD:            ptr(1.2),
			MACDSignal:      ptr(0.8),
			MACDHistogram:   ptr(0.4),
			StochasticK:     ptr(65),
			StochasticD:     ptr(55),
			BBUpper:         ptr(110),
			BBMiddle:        ptr(100),
			BBLower:         ptr(90),
			SupportLevel:    ptr(98),
			ResistanceLevel: ptr(108),
		},
		Flows: []contracts.InstitutionalFlow{
			{Symbol: symbol, ForeignBuy: 900, ForeignSell: 100, ForeignNet: 800, TotalNet: 800},
			{Symbol: symbol, ForeignBuy: 800, ForeignSell: 200, ForeignNet: 600, TotalNet: 700},
		},
		Margin:    &contracts.MarginBalance{Symbol: symbol, ShortMarginRatio: 5},
		Financial: &contracts.FinancialStatement{Symbol: symbol, ROE: 22, EPS: 8.7, DebtRatio: 35, OperatingCashFlow: 1000},
	}
}

func bearishInput(symbol string) Input {
	return Input{
		Symbol: symbol,
		Bar:    &contracts.PriceBar{Symbol: symbol, Close: 95, High: 97, Low: 94},
		Snapshot: &contracts.IndicatorSnapshot{
			Symbol:        symbol,
			MA5:           ptr(97),
			MA20:          ptr(100),
			RSI14:         ptr(28),
			MACDHistogram: ptr(-0.6),
			MACD:          ptr(-1.0),
			MACDSignal:    ptr(-0.4),
			StochasticK:   ptr(25),
			StochasticD:   ptr(35),
			BBUpper:       ptr(108),
			BBLower:       ptr(94),
			SupportLevel:  ptr(92),
		},
		Flows: []contracts.InstitutionalFlow{
			{Symbol: symbol, ForeignBuy: 100, ForeignSell: 900, ForeignNet: -800, TotalNet: -800},
		},
		Margin:    &contracts.MarginBalance{Symbol: symbol, ShortMarginRatio: 45},
		Financial: &contracts.FinancialStatement{Symbol: symbol, ROE: -3, EPS: -1.2, DebtRatio: 75, OperatingCashFlow: -500},
	}
}

func TestGenerateRanksDeterministically(t *testing.T) {
	engine := testEngine(t)
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	inputs := []Input{bearishInput("2317"), bullishInput("2330"), bullishInput("2454")}
	recs := engine.Generate(date, contracts.CategoryShortTerm, inputs)

	require.Len(t, recs, 3)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Score, recs[i].Score, "scores never increase down the list")
		assert.Equal(t, i+1, recs[i].Rank)
	}

	// 2330 and 2454 carry identical inputs: equal score and
	// confidence, so the symbol breaks the tie
	assert.Equal(t, "2330", recs[0].Symbol)
	assert.Equal(t, "2454", recs[1].Symbol)
	assert.Equal(t, "2317", recs[2].Symbol)

	// Same inputs, same output
	again := engine.Generate(date, contracts.CategoryShortTerm,
		[]Input{bearishInput("2317"), bullishInput("2330"), bullishInput("2454")})
	assert.Equal(t, recs, again)
}

func TestGenerateScoreBounds(t *testing.T) {
	engine := testEngine(t)
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	for _, category := range contracts.Categories {
		recs := engine.Generate(date, category, []Input{bullishInput("2330"), bearishInput("1101")})
		for _, rec := range recs {
			assert.GreaterOrEqual(t, rec.Score, 0.0)
			assert.LessOrEqual(t, rec.Score, 100.0)
			assert.GreaterOrEqual(t, rec.TechnicalScore, 0.0)
			assert.LessOrEqual(t, rec.TechnicalScore, 100.0)
			assert.Equal(t, category.HoldingDays(), rec.HoldingDays)
		}
	}
}

func TestGenerateSkipsInputsWithoutSnapshot(t *testing.T) {
	engine := testEngine(t)

	inputs := []Input{
		bullishInput("2330"),
		{Symbol: "9999", Bar: &contracts.PriceBar{Symbol: "9999", Close: 10}},
	}
	recs := engine.Generate(time.Now(), contracts.CategoryMidTerm, inputs)

	require.Len(t, recs, 1, "symbols without a snapshot are excluded")
	assert.Equal(t, "2330", recs[0].Symbol)
}

func TestBuySellFlags(t *testing.T) {
	engine := testEngine(t)

	recs := engine.Generate(time.Now(), contracts.CategoryShortTerm, []Input{bullishInput("2330")})
	require.Len(t, recs, 1)
	assert.True(t, recs[0].BuySignal, "strong technical posture trips the buy flag")
	assert.False(t, recs[0].SellSignal)

	recs = engine.Generate(time.Now(), contracts.CategoryShortTerm, []Input{bearishInput("1101")})
	require.Len(t, recs, 1)
	assert.False(t, recs[0].BuySignal)
	assert.True(t, recs[0].SellSignal, "weak technical posture trips the sell flag")
}

func TestBuySellFlagsTrackTechnicalNotComposite(t *testing.T) {
	engine := testEngine(t)

	// Bearish technicals paired with heavy institutional buying and
	// pristine fundamentals. Long-term weighting pushes the composite
	// over the buy threshold, but the flags follow the technical
	// sub-score alone.
	mixed := bearishInput("2603")
	bullish := bullishInput("2603")
	mixed.Flows = bullish.Flows
	mixed.Margin = bullish.Margin
	mixed.Financial = bullish.Financial

	recs := engine.Generate(time.Now(), contracts.CategoryLongTerm, []Input{mixed})
	require.Len(t, recs, 1)

	assert.GreaterOrEqual(t, recs[0].Score, engine.buyThreshold,
		"composite clears the buy threshold on flow and fundamentals")
	assert.False(t, recs[0].BuySignal)
	assert.True(t, recs[0].SellSignal)
}

func TestRationaleSignals(t *testing.T) {
	engine := testEngine(t)

	recs := engine.Generate(time.Now(), contracts.CategoryShortTerm, []Input{bullishInput("2330")})
	require.Len(t, recs, 1)

	kinds := make(map[contracts.SignalKind]bool)
	for _, sig := range recs[0].Rationale {
		kinds[sig.Kind()] = true
	}
	assert.True(t, kinds[contracts.KindMovingAverageCross])
	assert.True(t, kinds[contracts.KindMACDCross])
	assert.True(t, kinds[contracts.KindInstitutionalNetBuy])
	assert.True(t, kinds[contracts.KindFundamentalStrength])
	assert.False(t, kinds[contracts.KindMarginPressure], "ratio below the pressure threshold")

	recs = engine.Generate(time.Now(), contracts.CategoryShortTerm, []Input{bearishInput("1101")})
	require.Len(t, recs, 1)
	kinds = make(map[contracts.SignalKind]bool)
	for _, sig := range recs[0].Rationale {
		kinds[sig.Kind()] = true
	}
	assert.True(t, kinds[contracts.KindRSIOversold])
	assert.True(t, kinds[contracts.KindInstitutionalNetSell])
	assert.True(t, kinds[contracts.KindMarginPressure])
	assert.True(t, kinds[contracts.KindFundamentalWeakness])
}

func TestPriceLevels(t *testing.T) {
	in := bullishInput("2330")
	target, stop, support, resistance := priceLevels(in.Bar, in.Snapshot)

	assert.Equal(t, 98.0, support)
	assert.Equal(t, 108.0, resistance)
	// Bollinger half-width is 10, so close+10 beats the pivot
	assert.Equal(t, 115.0, target)
	// close-5 = 100 vs support 98: the tighter support wins
	assert.Equal(t, 98.0, stop)
}

func TestCategoryWeightOverlays(t *testing.T) {
	base := Weights{Technical: 0.40, Flow: 0.35, Fundamental: 0.25}

	short := base.ForCategory(contracts.CategoryShortTerm)
	long := base.ForCategory(contracts.CategoryLongTerm)
	rotation := base.ForCategory(contracts.CategorySectorRotation)

	assert.Greater(t, short.Technical, long.Technical)
	assert.Greater(t, long.Fundamental, short.Fundamental)
	assert.Greater(t, rotation.Flow, base.Flow)

	for _, w := range []Weights{short, long, rotation} {
		assert.InDelta(t, 1.0, w.Technical+w.Flow+w.Fundamental, 1e-9, "weights stay normalized")
	}
}

func TestNetStreak(t *testing.T) {
	flows := []contracts.InstitutionalFlow{
		{TotalNet: -100}, {TotalNet: 200}, {TotalNet: 300}, {TotalNet: 400},
	}
	assert.Equal(t, 3, netStreak(flows))

	flows = []contracts.InstitutionalFlow{{TotalNet: 100}, {TotalNet: -200}}
	assert.Equal(t, -1, netStreak(flows))

	assert.Equal(t, 0, netStreak(nil))
	assert.Equal(t, 0, netStreak([]contracts.InstitutionalFlow{{TotalNet: 0}}))
}
