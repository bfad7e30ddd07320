package contracts

import "time"

// PriceBar is one daily OHLCV bar. Unique per (symbol, trade date).
// Immutable once the trading day has closed, except that the adjusted
// close may be rewritten by corporate-action corrections.
type PriceBar struct {
	Symbol    string    `json:"symbol"`
	TradeDate time.Time `json:"trade_date"`

	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adj_close"`
	Volume   int64   `json:"volume"`
	Turnover int64   `json:"turnover"`

	// Derived from the previous close at ingestion time
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
}

// Validate checks the OHLC ordering and value-range invariants.
// low <= open,close <= high, volume >= 0, date not in the future.
func (p *PriceBar) Validate(now time.Time) *ValidationError {
	reject := func(reason string) *ValidationError {
		return &ValidationError{Symbol: p.Symbol, Date: p.TradeDate, Reason: reason}
	}

	if p.Symbol == "" {
		return reject("missing symbol")
	}
	if p.TradeDate.IsZero() {
		return reject("missing trade date")
	}
	if p.TradeDate.After(now) {
		return reject("trade date in the future")
	}
	if p.Volume < 0 {
		return reject("negative volume")
	}
	if p.Low > p.Open || p.Low > p.Close {
		return reject("low above open or close")
	}
	if p.High < p.Open || p.High < p.Close {
		return reject("high below open or close")
	}
	if p.Low > p.High {
		return reject("low above high")
	}
	return nil
}
