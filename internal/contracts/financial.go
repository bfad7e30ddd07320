package contracts

import "time"

// FinancialStatement is one quarterly filing for a symbol. Unique per
// (symbol, year, quarter).
type FinancialStatement struct {
	Symbol     string `json:"symbol"`
	Year       int    `json:"year"`
	Quarter    int    `json:"quarter"`
	ReportType string `json:"report_type"` // consolidated, individual

	// Income statement
	Revenue         int64   `json:"revenue"`
	GrossProfit     int64   `json:"gross_profit"`
	OperatingIncome int64   `json:"operating_income"`
	NetIncome       int64   `json:"net_income"`
	EPS             float64 `json:"eps"`

	// Balance sheet
	TotalAssets       int64   `json:"total_assets"`
	TotalLiabilities  int64   `json:"total_liabilities"`
	ShareholderEquity int64   `json:"shareholder_equity"`
	BookValuePerShare float64 `json:"book_value_per_share"`

	// Cash flow
	OperatingCashFlow int64 `json:"operating_cash_flow"`
	InvestingCashFlow int64 `json:"investing_cash_flow"`
	FinancingCashFlow int64 `json:"financing_cash_flow"`

	// Ratios
	ROE          float64 `json:"roe"`
	ROA          float64 `json:"roa"`
	DebtRatio    float64 `json:"debt_ratio"`
	CurrentRatio float64 `json:"current_ratio"`

	ReportedAt time.Time `json:"reported_at"`
}

// Period orders statements chronologically: later (year, quarter)
// compares greater.
func (f *FinancialStatement) Period() int {
	return f.Year*4 + f.Quarter
}
