package sources

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"crypto_tracker/internal/domain"
)

const defaultCoingeckoBase = "https://api.coingecko.com"

// coingeckoIDs maps tickers whose CoinGecko id differs from the lowercased
// symbol. Unmapped symbols fall back to lowercasing.
var coingeckoIDs = map[string]string{
	"IRYS":  "irys",
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"SOL":   "solana",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"AVAX":  "avalanche-2",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
}

// CoingeckoID resolves a token symbol to its CoinGecko identifier.
func CoingeckoID(symbol string) string {
	if id, ok := coingeckoIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// Aggregator returns the CoinGecko simple-price source, the highest-priority
// entry in every chain. An empty base uses the public API.
func Aggregator(base string) Source {
	if base == "" {
		base = defaultCoingeckoBase
	}
	return Source{
		Name: "CoinGecko",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd", base, CoingeckoID(symbol))
		},
		Extract: func(symbol string, body []byte) (decimal.Decimal, error) {
			// {"bitcoin":{"usd":50000.12}}
			var data map[string]map[string]decimal.Decimal
			if err := json.Unmarshal(body, &data); err != nil {
				return decimal.Zero, domain.NewSourceError("CoinGecko", "decode", err)
			}
			entry, ok := data[CoingeckoID(symbol)]
			if !ok {
				return decimal.Zero, domain.NewSourceError("CoinGecko", "extract", domain.ErrNoPrice)
			}
			price, ok := entry["usd"]
			if !ok || price.IsZero() {
				return decimal.Zero, domain.NewSourceError("CoinGecko", "extract", domain.ErrNoPrice)
			}
			return price, nil
		},
	}
}
