package contracts

import "time"

// IndicatorSnapshot is the derived technical-indicator bundle for one
// (symbol, trade date). It exists only when at least MinHistoryBars
// trading days precede the trade date; windows the history cannot fill
// stay nil rather than zero-filled. Recomputing the same key
// overwrites in place.
type IndicatorSnapshot struct {
	Symbol    string    `json:"symbol"`
	TradeDate time.Time `json:"trade_date"`

	// Simple moving averages; nil when fewer than N bars exist
	MA5   *float64 `json:"ma_5,omitempty"`
	MA10  *float64 `json:"ma_10,omitempty"`
	MA20  *float64 `json:"ma_20,omitempty"`
	MA60  *float64 `json:"ma_60,omitempty"`
	MA120 *float64 `json:"ma_120,omitempty"`
	MA240 *float64 `json:"ma_240,omitempty"`

	// Exponential moving averages
	EMA12 *float64 `json:"ema_12,omitempty"`
	EMA26 *float64 `json:"ema_26,omitempty"`

	// Oscillators
	RSI14          *float64 `json:"rsi_14,omitempty"`
	MACD           *float64 `json:"macd,omitempty"`
	MACDSignal     *float64 `json:"macd_signal,omitempty"`
	MACDHistogram  *float64 `json:"macd_histogram,omitempty"`
	StochasticK    *float64 `json:"k_value,omitempty"`
	StochasticD    *float64 `json:"d_value,omitempty"`

	// Bollinger bands (20-period, 2 sigma)
	BBUpper  *float64 `json:"bb_upper,omitempty"`
	BBMiddle *float64 `json:"bb_middle,omitempty"`
	BBLower  *float64 `json:"bb_lower,omitempty"`

	// Volume moving averages
	VolumeMA5  *float64 `json:"volume_ma_5,omitempty"`
	VolumeMA20 *float64 `json:"volume_ma_20,omitempty"`

	// Pivot levels over the trailing 20 bars
	SupportLevel    *float64 `json:"support_level,omitempty"`
	ResistanceLevel *float64 `json:"resistance_level,omitempty"`
}

// MinHistoryBars is the hard precondition for emitting a snapshot.
const MinHistoryBars = 20

// MaxHistoryBars is the longest window any indicator consumes.
const MaxHistoryBars = 240
