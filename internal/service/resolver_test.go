package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crypto_tracker/internal/infra"
	"crypto_tracker/internal/infra/sources"
)

func newTestSession(t *testing.T) *infra.Session {
	t.Helper()
	session := infra.NewSession(2 * time.Second)
	t.Cleanup(session.Close)
	return session
}

// newPriceSource builds a source backed by a mock server answering
// {"price": <body value>} and counts how often it is called.
func newPriceSource(t *testing.T, name string, handler http.HandlerFunc) (sources.Source, *atomic.Int32) {
	t.Helper()

	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return sources.Source{
		Name: name,
		URL: func(symbol string) string {
			return server.URL + "/ticker?symbol=" + symbol
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Price decimal.Decimal `json:"price"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, err
			}
			return resp.Price, nil
		},
	}, calls
}

func priceBody(price string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":"` + price + `"}`))
	}
}

func failBody() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func TestResolver_AggregatorWins(t *testing.T) {
	aggregator, aggCalls := newPriceSource(t, "CoinGecko", priceBody("50000"))
	exchange, exCalls := newPriceSource(t, "Binance", priceBody("49999"))

	resolver := NewResolver(newTestSession(t), aggregator, []sources.Source{exchange})
	quote := resolver.ResolvePrice(context.Background(), "BTC")

	if !quote.Resolved() {
		t.Fatal("Expected a resolved quote")
	}
	if !quote.PriceUSD.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("Expected 50000, got %v", quote.PriceUSD)
	}
	if quote.Source != "CoinGecko" {
		t.Errorf("Expected CoinGecko, got %s", quote.Source)
	}
	if aggCalls.Load() != 1 {
		t.Errorf("Expected 1 aggregator call, got %d", aggCalls.Load())
	}
	if exCalls.Load() != 0 {
		t.Errorf("Aggregator success must skip exchanges, got %d calls", exCalls.Load())
	}
}

func TestResolver_FallbackStopsAtFirstHit(t *testing.T) {
	aggregator, _ := newPriceSource(t, "CoinGecko", failBody())
	ex1, ex1Calls := newPriceSource(t, "ex1", failBody())
	ex2, ex2Calls := newPriceSource(t, "ex2", failBody())
	ex3, ex3Calls := newPriceSource(t, "ex3", priceBody("123.45"))
	ex4, ex4Calls := newPriceSource(t, "ex4", priceBody("999"))

	resolver := NewResolver(newTestSession(t), aggregator, []sources.Source{ex1, ex2, ex3, ex4})
	quote := resolver.ResolvePrice(context.Background(), "AAA")

	if !quote.Resolved() || !quote.PriceUSD.Equal(decimal.NewFromFloat(123.45)) {
		t.Fatalf("Expected 123.45 from ex3, got %+v", quote)
	}
	if quote.Source != "ex3" {
		t.Errorf("Expected ex3, got %s", quote.Source)
	}
	if ex1Calls.Load() != 1 || ex2Calls.Load() != 1 || ex3Calls.Load() != 1 {
		t.Errorf("Sources before the hit must each be tried once: %d %d %d",
			ex1Calls.Load(), ex2Calls.Load(), ex3Calls.Load())
	}
	if ex4Calls.Load() != 0 {
		t.Errorf("Sources after the hit must not be tried, got %d calls", ex4Calls.Load())
	}
}

func TestResolver_ZeroPriceTreatedAsMiss(t *testing.T) {
	aggregator, _ := newPriceSource(t, "CoinGecko", failBody())
	zero, _ := newPriceSource(t, "zero", priceBody("0"))
	next, nextCalls := newPriceSource(t, "next", priceBody("7"))

	resolver := NewResolver(newTestSession(t), aggregator, []sources.Source{zero, next})
	quote := resolver.ResolvePrice(context.Background(), "AAA")

	if !quote.Resolved() || !quote.PriceUSD.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("Zero price must fall through to the next source, got %+v", quote)
	}
	if nextCalls.Load() != 1 {
		t.Errorf("Expected next source to be tried, got %d calls", nextCalls.Load())
	}
}

func TestResolver_TotalFailureReturnsAbsent(t *testing.T) {
	aggregator, _ := newPriceSource(t, "CoinGecko", failBody())
	garbage, _ := newPriceSource(t, "garbage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>down for maintenance</html>`))
	})
	missing, _ := newPriceSource(t, "missing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"other_field":1}`))
	})

	resolver := NewResolver(newTestSession(t), aggregator, []sources.Source{garbage, missing})
	quote := resolver.ResolvePrice(context.Background(), "AAA")

	if quote.Resolved() {
		t.Fatalf("Expected absent price, got %v", quote.PriceUSD)
	}
	if quote.Symbol != "AAA" {
		t.Errorf("Quote must still carry the symbol, got %s", quote.Symbol)
	}
}

func TestResolver_ResolveMany_PartialFailure(t *testing.T) {
	// Aggregator resolves AAA only; BBB fails the whole chain
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "symbol=AAA") {
			w.Write([]byte(`{"price":"42"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	aggregator := sources.Source{
		Name: "CoinGecko",
		URL:  func(symbol string) string { return server.URL + "/price?symbol=" + symbol },
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Price decimal.Decimal `json:"price"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, err
			}
			return resp.Price, nil
		},
	}

	resolver := NewResolver(newTestSession(t), aggregator, nil)
	results := resolver.ResolveMany(context.Background(), []string{"AAA", "BBB"})

	if len(results) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(results))
	}
	if !results["AAA"].Resolved() || !results["AAA"].PriceUSD.Equal(decimal.NewFromInt(42)) {
		t.Errorf("Expected AAA=42, got %+v", results["AAA"])
	}
	if results["BBB"].Resolved() {
		t.Errorf("Expected BBB absent, got %v", results["BBB"].PriceUSD)
	}
}

func TestResolver_LowercaseInputNormalized(t *testing.T) {
	aggregator, _ := newPriceSource(t, "CoinGecko", priceBody("10"))

	resolver := NewResolver(newTestSession(t), aggregator, nil)
	results := resolver.ResolveMany(context.Background(), []string{"eth"})

	if _, ok := results["ETH"]; !ok {
		t.Fatalf("Expected uppercased key, got %v", results)
	}
}

func TestResolver_NilSessionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for nil session")
		}
	}()
	NewResolver(nil, sources.Aggregator(""), nil)
}

func TestResolver_ClosedSessionPanics(t *testing.T) {
	aggregator, _ := newPriceSource(t, "CoinGecko", priceBody("10"))

	session := infra.NewSession(time.Second)
	resolver := NewResolver(session, aggregator, nil)
	session.Close()

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for resolution after session close")
		}
	}()
	resolver.ResolvePrice(context.Background(), "BTC")
}
