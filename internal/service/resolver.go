// Package service hosts the price resolution chain and the polling
// controller that drives it.
package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"crypto_tracker/internal/domain"
	"crypto_tracker/internal/infra"
	"crypto_tracker/internal/infra/sources"
)

// Resolver resolves token prices over a strict source-priority chain: the
// aggregator first, then each exchange in order until one yields a non-zero
// price. There is no retry, caching or circuit breaking; every call walks
// the chain from the top.
type Resolver struct {
	session    *infra.Session
	aggregator sources.Source
	exchanges  []sources.Source
}

// NewResolver binds a resolver to an acquired network session. A nil session
// is a caller bug and panics: resolution must never run outside a session
// scope.
func NewResolver(session *infra.Session, aggregator sources.Source, exchanges []sources.Source) *Resolver {
	if session == nil {
		panic("service: resolver requires an acquired network session")
	}
	return &Resolver{
		session:    session,
		aggregator: aggregator,
		exchanges:  exchanges,
	}
}

// ResolvePrice resolves one token's USD price. The returned quote carries a
// nil price when every source failed or answered zero; that outcome is
// logged, never escalated.
func (r *Resolver) ResolvePrice(ctx context.Context, symbol string) domain.Quote {
	symbol = strings.ToUpper(symbol)
	quote := domain.Quote{Symbol: symbol, FetchedAt: time.Now()}

	infra.GlobalMetrics.RecordLookup()

	if price, ok := r.try(ctx, r.aggregator, symbol); ok {
		quote.PriceUSD = &price
		quote.Source = r.aggregator.Name
		infra.GlobalMetrics.RecordSourceHit()
		slog.Info("price resolved",
			slog.String("symbol", symbol),
			slog.String("source", r.aggregator.Name),
			slog.String("usd", price.String()),
		)
		return quote
	}

	for _, src := range r.exchanges {
		price, ok := r.try(ctx, src, symbol)
		if !ok {
			continue
		}
		quote.PriceUSD = &price
		quote.Source = src.Name
		infra.GlobalMetrics.RecordSourceHit()
		slog.Info("price resolved",
			slog.String("symbol", symbol),
			slog.String("source", src.Name),
			slog.String("usd", price.String()),
		)
		return quote
	}

	infra.GlobalMetrics.RecordResolveMiss()
	slog.Warn("no source yielded a price", slog.String("symbol", symbol))
	return quote
}

// try runs one source: a single GET, extraction only on HTTP 200, and a
// zero price counts as a miss. Failures are logged at debug and absorbed.
func (r *Resolver) try(ctx context.Context, src sources.Source, symbol string) (decimal.Decimal, bool) {
	infra.GlobalMetrics.RecordSourceAttempt()

	body, status, err := r.session.Get(ctx, src.URL(symbol))
	if err != nil {
		slog.Debug("source unreachable", slog.String("source", src.Name), slog.String("symbol", symbol), slog.Any("error", err))
		return decimal.Zero, false
	}
	if status != http.StatusOK {
		slog.Debug("source bad status", slog.String("source", src.Name), slog.String("symbol", symbol), slog.Int("status", status))
		return decimal.Zero, false
	}

	price, err := src.Extract(symbol, body)
	if err != nil {
		slog.Debug("source extraction failed", slog.String("source", src.Name), slog.String("symbol", symbol), slog.Any("error", err))
		return decimal.Zero, false
	}
	if !price.IsPositive() {
		// Some upstreams encode "unavailable" as 0; treat it as a miss.
		return decimal.Zero, false
	}
	return price, true
}

// ResolveMany fans ResolvePrice out across the given symbols, one goroutine
// each, and joins on all of them. Every input symbol appears in the result;
// a fully failed chain for one symbol never affects the others and the
// aggregate call itself cannot fail.
func (r *Resolver) ResolveMany(ctx context.Context, symbols []string) map[string]domain.Quote {
	results := make(map[string]domain.Quote, len(symbols))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			quote := r.ResolvePrice(ctx, symbol)
			mu.Lock()
			results[quote.Symbol] = quote
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()
	return results
}
