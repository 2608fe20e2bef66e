package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoinInfo represents metadata for a tracked cryptocurrency
type CoinInfo struct {
	Symbol       string    `gorm:"primaryKey" json:"symbol"`
	Name         string    `json:"name"`
	IconPath     string    `json:"icon_path"`
	IsActive     bool      `json:"is_active" gorm:"index"` // Currently in the tracked token list
	LastSyncedAt time.Time `json:"last_synced_at"`         // Last icon sync time
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// QuoteRecord is one persisted price resolution (history row)
type QuoteRecord struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Symbol    string          `gorm:"index" json:"symbol"`
	PriceUSD  decimal.Decimal `gorm:"type:text" json:"price_usd"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `gorm:"index" json:"fetched_at"`
}
