// Package sources describes every upstream price endpoint as a small record:
// a URL template plus a pure extraction function over the parsed body. The
// resolver walks these records in a fixed order instead of branching per
// exchange.
package sources

import "github.com/shopspring/decimal"

// Source describes one upstream price endpoint.
type Source struct {
	// Name identifies the source in logs and quote history.
	Name string

	// URL builds the request URL for an uppercase token symbol.
	URL func(symbol string) string

	// Extract pulls the USD price out of a 200 response body. It must be a
	// pure function of its inputs; a zero or missing price is an error so
	// the chain moves on.
	Extract func(symbol string, body []byte) (decimal.Decimal, error)
}
