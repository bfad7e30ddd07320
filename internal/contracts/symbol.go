package contracts

import "time"

// Symbol is a listed equity. Created on first discovery by a source
// adapter and soft-deactivated rather than deleted.
type Symbol struct {
	Symbol      string     `json:"symbol"`
	Name        string     `json:"name"`
	Market      string     `json:"market"` // TSE, OTC
	Industry    string     `json:"industry"`
	ListingDate *time.Time `json:"listing_date,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
