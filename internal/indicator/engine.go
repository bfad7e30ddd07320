package indicator

import (
	"fmt"
	"math"

	"github.com/jeffhong58/ai-stock-selector/internal/contracts"
)

// Engine computes technical indicator snapshots from price history. It
// is pure: no storage, no clock, no I/O. Given the same bars it always
// produces the same snapshot, which is what makes backfilled
// recomputation safe.
type Engine struct{}

// NewEngine creates a new indicator engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Window sizes. Values follow the conventional TA parameterization.
const (
	rsiPeriod        = 14
	macdFast         = 12
	macdSlow         = 26
	macdSignalPeriod = 9
	stochasticPeriod = 9
	stochasticSmooth = 3
	bollingerPeriod  = 20
	bollingerSigma   = 2.0
	pivotPeriod      = 20
)

// Compute derives the snapshot for the most recent bar in history.
// history must be ascending by trade date, all for one symbol. Fewer
// than MinHistoryBars bars is an ErrInsufficientHistory: no snapshot
// exists below that floor. Windows longer than the history stay nil.
func (e *Engine) Compute(history []contracts.PriceBar) (*contracts.IndicatorSnapshot, error) {
	if len(history) < contracts.MinHistoryBars {
		return nil, fmt.Errorf("%w: %d bars, need %d",
			contracts.ErrInsufficientHistory, len(history), contracts.MinHistoryBars)
	}
	if len(history) > contracts.MaxHistoryBars {
		history = history[len(history)-contracts.MaxHistoryBars:]
	}

	closes := make([]float64, len(history))
	highs := make([]float64, len(history))
	lows := make([]float64, len(history))
	volumes := make([]float64, len(history))
	for i, bar := range history {
		closes[i] = bar.Close
		highs[i] = bar.High
		lows[i] = bar.Low
		volumes[i] = float64(bar.Volume)
	}

	last := history[len(history)-1]
	snapshot := &contracts.IndicatorSnapshot{
		Symbol:    last.Symbol,
		TradeDate: last.TradeDate,

		MA5:   sma(closes, 5),
		MA10:  sma(closes, 10),
		MA20:  sma(closes, 20),
		MA60:  sma(closes, 60),
		MA120: sma(closes, 120),
		MA240: sma(closes, 240),

		EMA12: lastOf(emaSeries(closes, macdFast)),
		EMA26: lastOf(emaSeries(closes, macdSlow)),

		RSI14: rsi(closes, rsiPeriod),

		VolumeMA5:  sma(volumes, 5),
		VolumeMA20: sma(volumes, 20),
	}

	snapshot.MACD, snapshot.MACDSignal, snapshot.MACDHistogram = macd(closes)
	snapshot.StochasticK, snapshot.StochasticD = stochastic(highs, lows, closes)
	snapshot.BBUpper, snapshot.BBMiddle, snapshot.BBLower = bollinger(closes)
	snapshot.SupportLevel, snapshot.ResistanceLevel = pivotLevels(highs, lows)

	return snapshot, nil
}

func ptr(v float64) *float64 { return &v }

func lastOf(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	return ptr(series[len(series)-1])
}

// sma returns the simple moving average over the last period values,
// nil when the series is shorter than the period.
func sma(values []float64, period int) *float64 {
	if len(values) < period {
		return nil
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return ptr(sum / float64(period))
}

// emaSeries returns the exponential moving average series, seeded with
// the SMA of the first period values. series[i] corresponds to
// values[period-1+i].
func emaSeries(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	k := 2.0 / float64(period+1)
	series := make([]float64, 0, len(values)-period+1)
	series = append(series, seed)

	ema := seed
	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
		series = append(series, ema)
	}
	return series
}

// rsi computes Wilder's RSI over the last value. All-gain histories
// saturate at 100, all-loss at 0.
func rsi(values []float64, period int) *float64 {
	if len(values) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remainder
	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return ptr(100.0)
	}
	rs := avgGain / avgLoss
	value := 100 - 100/(1+rs)

	// Guard the [0,100] range against float drift
	return ptr(math.Max(0, math.Min(100, value)))
}

// macd computes the MACD line (EMA12-EMA26), its 9-period EMA signal
// line, and the histogram. The signal line needs macdSlow+
// macdSignalPeriod-1 bars; below that all three stay nil.
func macd(closes []float64) (line, signal, histogram *float64) {
	fast := emaSeries(closes, macdFast)
	slow := emaSeries(closes, macdSlow)
	if slow == nil {
		return nil, nil, nil
	}

	// Align the fast series onto the slow one
	offset := len(fast) - len(slow)
	macdLine := make([]float64, len(slow))
	for i := range slow {
		macdLine[i] = fast[offset+i] - slow[i]
	}

	signalSeries := emaSeries(macdLine, macdSignalPeriod)
	if signalSeries == nil {
		return nil, nil, nil
	}

	m := macdLine[len(macdLine)-1]
	s := signalSeries[len(signalSeries)-1]
	return ptr(m), ptr(s), ptr(m - s)
}

// stochastic computes the %K(9) / %D(3) oscillator for the last bar.
// A zero high-low range carries the previous %K forward; a leading
// zero range reads as 50.
func stochastic(highs, lows, closes []float64) (k, d *float64) {
	kSeries := stochasticKSeries(highs, lows, closes)
	if len(kSeries) < stochasticSmooth {
		return nil, nil
	}

	lastK := kSeries[len(kSeries)-1]
	var sum float64
	for _, v := range kSeries[len(kSeries)-stochasticSmooth:] {
		sum += v
	}
	return ptr(lastK), ptr(sum / stochasticSmooth)
}

func stochasticKSeries(highs, lows, closes []float64) []float64 {
	if len(closes) < stochasticPeriod {
		return nil
	}

	series := make([]float64, 0, len(closes)-stochasticPeriod+1)
	prev := 50.0
	for i := stochasticPeriod - 1; i < len(closes); i++ {
		lowest, highest := lows[i], highs[i]
		for j := i - stochasticPeriod + 1; j <= i; j++ {
			lowest = math.Min(lowest, lows[j])
			highest = math.Max(highest, highs[j])
		}

		k := prev
		if highest > lowest {
			k = (closes[i] - lowest) / (highest - lowest) * 100
		}
		series = append(series, k)
		prev = k
	}
	return series
}

// bollinger computes the 20-period bands at 2 population standard
// deviations around the middle SMA.
func bollinger(closes []float64) (upper, middle, lower *float64) {
	if len(closes) < bollingerPeriod {
		return nil, nil, nil
	}

	window := closes[len(closes)-bollingerPeriod:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / bollingerPeriod

	var variance float64
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	sigma := math.Sqrt(variance / bollingerPeriod)

	return ptr(mean + bollingerSigma*sigma), ptr(mean), ptr(mean - bollingerSigma*sigma)
}

// pivotLevels reads support as the lowest low and resistance as the
// highest high over the trailing 20 bars.
func pivotLevels(highs, lows []float64) (support, resistance *float64) {
	if len(highs) < pivotPeriod {
		return nil, nil
	}

	lowest := lows[len(lows)-1]
	highest := highs[len(highs)-1]
	for i := len(highs) - pivotPeriod; i < len(highs); i++ {
		lowest = math.Min(lowest, lows[i])
		highest = math.Max(highest, highs[i])
	}
	return ptr(lowest), ptr(highest)
}
