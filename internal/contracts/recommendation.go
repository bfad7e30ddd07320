package contracts

import "time"

// Category identifies a recommendation list. Each category is ranked
// independently per date.
type Category string

const (
	CategoryShortTerm      Category = "short_term"
	CategoryMidTerm        Category = "mid_term"
	CategoryLongTerm       Category = "long_term"
	CategorySectorRotation Category = "sector_rotation"
)

// Categories lists every category generated in a daily run, in a fixed
// order so runs are reproducible.
var Categories = []Category{
	CategoryShortTerm,
	CategoryMidTerm,
	CategoryLongTerm,
	CategorySectorRotation,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// HoldingDays returns the expected holding horizon for the category.
func (c Category) HoldingDays() int {
	switch c {
	case CategoryShortTerm:
		return 5
	case CategoryMidTerm:
		return 20
	case CategoryLongTerm:
		return 120
	case CategorySectorRotation:
		return 20
	default:
		return 0
	}
}

// Recommendation is one ranked entry within a (date, category). Unique
// per (date, category, symbol); regenerated fresh each run and kept
// until retention cleanup.
type Recommendation struct {
	Date     time.Time `json:"recommendation_date"`
	Category Category  `json:"category"`
	Symbol   string    `json:"symbol"`

	Score      float64 `json:"score"` // [0,100]
	Rank       int     `json:"rank"`  // 1-based within category
	Confidence float64 `json:"confidence"`

	// Sub-scores behind the composite, each [0,100]
	TechnicalScore   float64 `json:"technical_score"`
	FlowScore        float64 `json:"flow_score"`
	FundamentalScore float64 `json:"fundamental_score"`

	BuySignal  bool `json:"buy_signal"`
	SellSignal bool `json:"sell_signal"`

	TargetPrice     float64 `json:"target_price"`
	StopLoss        float64 `json:"stop_loss"`
	SupportPrice    float64 `json:"support_price"`
	ResistancePrice float64 `json:"resistance_price"`

	Rationale Rationale `json:"rationale"`

	Timeframe   string `json:"timeframe"`
	HoldingDays int    `json:"expected_holding_days"`
}
