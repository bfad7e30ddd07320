package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

func barsFromCloses(closes []float64) []contracts.PriceBar {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.PriceBar, len(closes))
	for i, close := range closes {
		bars[i] = contracts.PriceBar{
			Symbol:    "2330",
			TradeDate: base.AddDate(0, 0, i),
			Open:      close,
			High:      close + 1,
			Low:       close - 1,
			Close:     close,
			AdjClose:  close,
			Volume:    1000 + int64(i)*10,
		}
	}
	return bars
}

// scenarioCloses pads the reference series to 25 bars by repeating it.
func scenarioCloses() []float64 {
	seed := []float64{100, 102, 98, 103, 105, 101, 99, 104, 106, 102}
	closes := make([]float64, 0, 25)
	for len(closes) < 25 {
		closes = append(closes, seed[len(closes)%len(seed)])
	}
	return closes
}

func TestComputeScenario25Bars(t *testing.T) {
	engine := NewEngine()
	closes := scenarioCloses()

	snapshot, err := engine.Compute(barsFromCloses(closes))
	require.NoError(t, err)

	// SMA5 on the last bar is the mean of the trailing 5 closes
	var sum float64
	for _, c := range closes[20:] {
		sum += c
	}
	require.NotNil(t, snapshot.MA5)
	assert.InDelta(t, sum/5, *snapshot.MA5, 1e-9)

	// 25 bars fill every short window
	assert.NotNil(t, snapshot.MA10)
	assert.NotNil(t, snapshot.MA20)
	assert.NotNil(t, snapshot.EMA12)
	assert.NotNil(t, snapshot.RSI14)
	assert.NotNil(t, snapshot.StochasticK)
	assert.NotNil(t, snapshot.StochasticD)
	assert.NotNil(t, snapshot.BBUpper)
	assert.NotNil(t, snapshot.VolumeMA5)
	assert.NotNil(t, snapshot.VolumeMA20)
	assert.NotNil(t, snapshot.SupportLevel)
	assert.NotNil(t, snapshot.ResistanceLevel)

	// ...but not the long ones
	assert.Nil(t, snapshot.MA60)
	assert.Nil(t, snapshot.MA120)
	assert.Nil(t, snapshot.MA240)
	assert.Nil(t, snapshot.EMA26, "EMA26 needs 26 bars")
	assert.Nil(t, snapshot.MACD, "MACD signal needs 34 bars")
}

func TestComputeInsufficientHistory(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Compute(barsFromCloses(scenarioCloses()[:15]))
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)

	_, err = engine.Compute(nil)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}

func TestComputeDeterministic(t *testing.T) {
	engine := NewEngine()
	bars := barsFromCloses(scenarioCloses())

	first, err := engine.Compute(bars)
	require.NoError(t, err)
	second, err := engine.Compute(bars)
	require.NoError(t, err)

	assert.Equal(t, first, second, "unchanged history computes identical snapshots")
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	got := sma(values, 5)
	require.NotNil(t, got)
	assert.InDelta(t, 3.0, *got, 1e-9)

	assert.Nil(t, sma(values, 6), "short series has no SMA")
}

func TestEMASeries(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}

	series := emaSeries(values, 3)
	require.Len(t, series, 4)
	assert.InDelta(t, 2.0, series[0], 1e-9, "seeded with the SMA of the first period")

	// k = 0.5 for period 3
	assert.InDelta(t, 4*0.5+2*0.5, series[1], 1e-9)

	assert.Nil(t, emaSeries(values[:2], 3))
}

func TestRSIBounds(t *testing.T) {
	allGains := make([]float64, 20)
	for i := range allGains {
		allGains[i] = 100 + float64(i)
	}
	got := rsi(allGains, 14)
	require.NotNil(t, got)
	assert.Equal(t, 100.0, *got, "monotonic gains saturate at 100")

	allLosses := make([]float64, 20)
	for i := range allLosses {
		allLosses[i] = 100 - float64(i)
	}
	got = rsi(allLosses, 14)
	require.NotNil(t, got)
	assert.Equal(t, 0.0, *got, "monotonic losses saturate at 0")

	mixed := scenarioCloses()
	got = rsi(mixed, 14)
	require.NotNil(t, got)
	assert.GreaterOrEqual(t, *got, 0.0)
	assert.LessOrEqual(t, *got, 100.0)

	assert.Nil(t, rsi(mixed[:14], 14), "needs period+1 values")
}

func TestMACDNeedsLongHistory(t *testing.T) {
	line, signal, histogram := macd(scenarioCloses())
	assert.Nil(t, line)
	assert.Nil(t, signal)
	assert.Nil(t, histogram)

	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	line, signal, histogram = macd(closes)
	require.NotNil(t, line)
	require.NotNil(t, signal)
	require.NotNil(t, histogram)
	assert.InDelta(t, *line-*signal, *histogram, 1e-9)
}

func TestBollingerOrdering(t *testing.T) {
	upper, middle, lower := bollinger(scenarioCloses())
	require.NotNil(t, upper)
	require.NotNil(t, middle)
	require.NotNil(t, lower)

	assert.GreaterOrEqual(t, *upper, *middle)
	assert.GreaterOrEqual(t, *middle, *lower)
}

func TestBollingerFlatSeries(t *testing.T) {
	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 100
	}
	upper, middle, lower := bollinger(flat)
	assert.Equal(t, 100.0, *upper, "zero variance collapses the bands")
	assert.Equal(t, 100.0, *middle)
	assert.Equal(t, 100.0, *lower)
}

func TestStochasticZeroRangeCarriesForward(t *testing.T) {
	// Nine identical bars then movement: the flat window has no range,
	// so %K carries the neutral seed forward instead of dividing by zero
	closes := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 105}
	highs := make([]float64, len(closes))
	lows := make([]float64, len(closes))
	copy(highs, closes)
	copy(lows, closes)
	highs[10] = 106
	lows[10] = 100

	series := stochasticKSeries(highs, lows, closes)
	require.Len(t, series, 3)
	assert.Equal(t, 50.0, series[0], "leading zero range reads neutral")
	assert.Equal(t, 50.0, series[1])
	assert.InDelta(t, (105.0-100.0)/(106.0-100.0)*100, series[2], 1e-9)
}

func TestPivotLevels(t *testing.T) {
	bars := barsFromCloses(scenarioCloses())
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, bar := range bars {
		highs[i] = bar.High
		lows[i] = bar.Low
	}

	support, resistance := pivotLevels(highs, lows)
	require.NotNil(t, support)
	require.NotNil(t, resistance)
	assert.Equal(t, 97.0, *support, "lowest low of the trailing 20 bars")
	assert.Equal(t, 107.0, *resistance, "highest high of the trailing 20 bars")
	assert.Less(t, *support, *resistance)
}

func TestComputeTruncatesOverlongHistory(t *testing.T) {
	engine := NewEngine()

	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 + float64(i%10)
	}
	snapshot, err := engine.Compute(barsFromCloses(closes))
	require.NoError(t, err)

	assert.NotNil(t, snapshot.MA240, "240 bars survive the truncation")
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 299),
		snapshot.TradeDate, "snapshot is for the newest bar")
}
