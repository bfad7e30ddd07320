package contracts

import "time"

// InstitutionalFlow is one day of buy/sell activity by the three major
// institutional investor classes for a symbol. Volumes are in shares.
type InstitutionalFlow struct {
	Symbol    string    `json:"symbol"`
	TradeDate time.Time `json:"trade_date"`

	ForeignBuy  int64 `json:"foreign_buy"`
	ForeignSell int64 `json:"foreign_sell"`
	ForeignNet  int64 `json:"foreign_net"`

	TrustBuy  int64 `json:"trust_buy"`
	TrustSell int64 `json:"trust_sell"`
	TrustNet  int64 `json:"trust_net"`

	DealerBuy  int64 `json:"dealer_buy"`
	DealerSell int64 `json:"dealer_sell"`
	DealerNet  int64 `json:"dealer_net"`

	TotalNet int64 `json:"total_net"`
}

// MarginBalance is one day of margin-buy and short-sell balances for a
// symbol.
type MarginBalance struct {
	Symbol    string    `json:"symbol"`
	TradeDate time.Time `json:"trade_date"`

	MarginBuy     int64 `json:"margin_buy"`
	MarginSell    int64 `json:"margin_sell"`
	MarginBalance int64 `json:"margin_balance"`

	ShortSell    int64 `json:"short_sell"`
	ShortCover   int64 `json:"short_cover"`
	ShortBalance int64 `json:"short_balance"`

	// ShortBalance / MarginBalance * 100; 0 when margin balance is zero
	ShortMarginRatio float64 `json:"short_margin_ratio"`
}
