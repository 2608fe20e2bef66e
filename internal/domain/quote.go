package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnavailablePlaceholder is what display clients should show for a token
// whose price could not be resolved this cycle.
const UnavailablePlaceholder = "—"

// Quote is one resolved (or failed) price lookup for a token symbol.
// A nil PriceUSD means no source in the chain yielded a usable price;
// that is a valid terminal outcome, not an error.
type Quote struct {
	Symbol    string           `json:"symbol"`
	PriceUSD  *decimal.Decimal `json:"price_usd,omitempty"`
	Source    string           `json:"source,omitempty"` // source that won the chain
	FetchedAt time.Time        `json:"fetched_at"`
}

// Resolved reports whether the lookup produced a price.
func (q Quote) Resolved() bool {
	return q.PriceUSD != nil
}

// DisplayEntry is a quote prepared for presentation: converted into the
// display currency and formatted, or the placeholder when unresolved.
type DisplayEntry struct {
	Symbol string `json:"symbol"`
	Text   string `json:"text"`
}

// Snapshot is the unit published to display clients after every poll cycle.
// Entries preserve the configured token order.
type Snapshot struct {
	At       time.Time      `json:"at"`
	Currency CurrencyCode   `json:"currency"`
	Quotes   []Quote        `json:"quotes"`
	Entries  []DisplayEntry `json:"entries"`
}
