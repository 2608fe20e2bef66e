// Package rates maintains the USD-based currency conversion table and
// refreshes it from public exchange-rate providers with a fixed-priority
// fallback chain.
package rates

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"crypto_tracker/internal/domain"
	"crypto_tracker/internal/infra"
)

// DefaultProviders are tried in order on every refresh. All are public,
// unauthenticated USD-base endpoints returning a top-level "rates" object.
var DefaultProviders = []string{
	"https://api.exchangerate-api.com/v4/latest/USD",
	"https://open.er-api.com/v6/latest/USD",
	"https://api.exchangerate.host/latest?base=USD",
	"https://api.frankfurter.app/latest?from=USD",
}

// providerResponse covers the shared shape of every supported rate provider.
type providerResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// refreshedCodes are the table entries a refresh may overwrite. USD is pinned.
var refreshedCodes = []domain.CurrencyCode{domain.EUR, domain.RUB, domain.UAH, domain.KZT}

// Store holds the current conversion table. It always contains exactly the
// five supported codes; a failed refresh leaves previous values in place
// indefinitely (there is no staleness tracking).
type Store struct {
	mu        sync.RWMutex
	table     map[domain.CurrencyCode]decimal.Decimal
	providers []string
}

// NewStore creates a store seeded with approximate default rates so the
// widget renders sensibly before the first successful refresh.
func NewStore(providers []string) *Store {
	if len(providers) == 0 {
		providers = DefaultProviders
	}
	return &Store{
		table: map[domain.CurrencyCode]decimal.Decimal{
			domain.USD: decimal.NewFromInt(1),
			domain.EUR: decimal.NewFromFloat(0.92),
			domain.RUB: decimal.NewFromInt(92),
			domain.UAH: decimal.NewFromInt(41),
			domain.KZT: decimal.NewFromInt(480),
		},
		providers: providers,
	}
}

// Refresh walks the provider chain until one answers with a usable rates
// object, then overwrites the table and stops. Keys missing from that one
// response keep their current values. Total failure is logged, never
// surfaced: callers proceed on the previous (possibly default) table.
func (s *Store) Refresh(ctx context.Context, session *infra.Session) {
	for _, url := range s.providers {
		infra.GlobalMetrics.RecordSourceAttempt()

		body, status, err := session.Get(ctx, url)
		if err != nil {
			slog.Warn("rate provider unreachable", slog.String("url", url), slog.Any("error", err))
			continue
		}
		if status != 200 {
			slog.Warn("rate provider bad status", slog.String("url", url), slog.Int("status", status))
			continue
		}

		var resp providerResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			slog.Warn("rate provider malformed body", slog.String("url", url), slog.Any("error", err))
			continue
		}
		if resp.Rates == nil {
			slog.Warn("rate provider missing rates field", slog.String("url", url))
			continue
		}

		s.adopt(resp.Rates)
		infra.GlobalMetrics.RecordRateRefresh(true)
		slog.Info("exchange rates updated",
			slog.String("provider", url),
			slog.String("eur", s.Rate(domain.EUR).String()),
			slog.String("rub", s.Rate(domain.RUB).String()),
			slog.String("uah", s.Rate(domain.UAH).String()),
			slog.String("kzt", s.Rate(domain.KZT).String()),
		)
		return
	}

	infra.GlobalMetrics.RecordRateRefresh(false)
	slog.Warn("all rate providers failed, using cached rates")
}

// adopt overwrites the refreshable entries with values present in rates.
// Absent or non-positive values keep the current entry.
func (s *Store) adopt(rates map[string]decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, code := range refreshedCodes {
		if v, ok := rates[string(code)]; ok && v.IsPositive() {
			s.table[code] = v
		}
	}
}

// Convert converts a USD amount into the given currency. Unknown codes pass
// the amount through unchanged (implicit USD).
func (s *Store) Convert(amountUSD decimal.Decimal, code domain.CurrencyCode) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rate, ok := s.table[code]
	if !ok {
		return amountUSD
	}
	return amountUSD.Mul(rate)
}

// Rate returns the current multiplier for a currency code, or zero for
// unknown codes.
func (s *Store) Rate(code domain.CurrencyCode) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table[code]
}

// Table returns a copy of the current conversion table.
func (s *Store) Table() map[domain.CurrencyCode]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.CurrencyCode]decimal.Decimal, len(s.table))
	for k, v := range s.table {
		out[k] = v
	}
	return out
}
