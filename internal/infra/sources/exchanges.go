package sources

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"crypto_tracker/internal/domain"
)

// upbitKRWPerUSD is the fixed divisor converting Upbit's KRW quotes to USD.
// It is a frozen approximation, not the live rate table.
// TODO: confirm whether this should read from the rate store instead.
var upbitKRWPerUSD = decimal.NewFromInt(1300)

// Exchanges returns the exchange fallback chain in its fixed priority order,
// applying per-exchange base URL overrides keyed by source name. Missing keys
// use the public endpoints. The resolver tries these one at a time after the
// aggregator; only the bases are configurable, never the order.
func Exchanges(bases map[string]string) []Source {
	return []Source{
		Binance(bases["Binance"]),
		MEXC(bases["MEXC"]),
		OKX(bases["OKX"]),
		Bybit(bases["Bybit"]),
		Gateio(bases["Gate.io"]),
		KuCoin(bases["KuCoin"]),
		HTX(bases["HTX"]),
		Coinbase(bases["Coinbase"]),
		Bitget(bases["Bitget"]),
		Bitfinex(bases["Bitfinex"]),
		Kraken(bases["Kraken"]),
		Upbit(bases["Upbit"]),
	}
}

// DefaultExchanges returns the chain with the public endpoints.
func DefaultExchanges() []Source {
	return Exchanges(nil)
}

func orDefault(base, def string) string {
	if base == "" {
		return def
	}
	return base
}

// Binance quotes the token against USDT. The price field is a quoted string.
func Binance(base string) Source {
	base = orDefault(base, "https://api.binance.com")
	return Source{
		Name: "Binance",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/api/v3/ticker/price?symbol=%sUSDT", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Price decimal.Decimal `json:"price"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("Binance", "decode", err)
			}
			return resp.Price, nil
		},
	}
}

func MEXC(base string) Source {
	base = orDefault(base, "https://www.mexc.com")
	return Source{
		Name: "MEXC",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/open/api/v2/market/ticker?symbol=%s_USDT", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Data []struct {
					Last decimal.Decimal `json:"last"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("MEXC", "decode", err)
			}
			if len(resp.Data) == 0 {
				return decimal.Zero, domain.NewSourceError("MEXC", "extract", domain.ErrNoPrice)
			}
			return resp.Data[0].Last, nil
		},
	}
}

func OKX(base string) Source {
	base = orDefault(base, "https://www.okx.com")
	return Source{
		Name: "OKX",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/api/v5/market/ticker?instId=%s-USDT", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Data []struct {
					Last decimal.Decimal `json:"last"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("OKX", "decode", err)
			}
			if len(resp.Data) == 0 {
				return decimal.Zero, domain.NewSourceError("OKX", "extract", domain.ErrNoPrice)
			}
			return resp.Data[0].Last, nil
		},
	}
}

func Bybit(base string) Source {
	base = orDefault(base, "https://api.bybit.com")
	return Source{
		Name: "Bybit",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/v5/market/tickers?category=spot&symbol=%sUSDT", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Result struct {
					List []struct {
						LastPrice decimal.Decimal `json:"lastPrice"`
					} `json:"list"`
				} `json:"result"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("Bybit", "decode", err)
			}
			if len(resp.Result.List) == 0 {
				return decimal.Zero, domain.NewSourceError("Bybit", "extract", domain.ErrNoPrice)
			}
			return resp.Result.List[0].LastPrice, nil
		},
	}
}

func Gateio(base string) Source {
	base = orDefault(base, "https://api.gateio.ws")
	return Source{
		Name: "Gate.io",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/api/v4/spot/tickers?currency_pair=%s_USDT", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			// Top-level array with a single ticker object
			var resp []struct {
				Last decimal.Decimal `json:"last"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("Gate.io", "decode", err)
			}
			if len(resp) == 0 {
				return decimal.Zero, domain.NewSourceError("Gate.io", "extract", domain.ErrNoPrice)
			}
			return resp[0].Last, nil
		},
	}
}

func KuCoin(base string) Source {
	base = orDefault(base, "https://api.kucoin.com")
	return Source{
		Name: "KuCoin",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/api/v1/market/orderbook/level1?symbol=%s-USDT", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Data struct {
					Price decimal.Decimal `json:"price"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("KuCoin", "decode", err)
			}
			return resp.Data.Price, nil
		},
	}
}

// HTX addresses symbols in lowercase, unlike the rest of the chain.
func HTX(base string) Source {
	base = orDefault(base, "https://api.huobi.pro")
	return Source{
		Name: "HTX",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/market/detail/merged?symbol=%susdt", base, strings.ToLower(symbol))
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Tick struct {
					Close decimal.Decimal `json:"close"`
				} `json:"tick"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("HTX", "decode", err)
			}
			return resp.Tick.Close, nil
		},
	}
}

// Coinbase is the only chain entry quoting directly against USD.
func Coinbase(base string) Source {
	base = orDefault(base, "https://api.coinbase.com")
	return Source{
		Name: "Coinbase",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/v2/prices/%s-USD/spot", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Data struct {
					Amount decimal.Decimal `json:"amount"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("Coinbase", "decode", err)
			}
			return resp.Data.Amount, nil
		},
	}
}

func Bitget(base string) Source {
	base = orDefault(base, "https://api.bitget.com")
	return Source{
		Name: "Bitget",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/api/spot/v1/market/ticker?symbol=%sUSDT_SPBL", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Data struct {
					Close decimal.Decimal `json:"close"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("Bitget", "decode", err)
			}
			return resp.Data.Close, nil
		},
	}
}

// Bitfinex answers with a bare array; the last price sits at index 6.
func Bitfinex(base string) Source {
	base = orDefault(base, "https://api-pub.bitfinex.com")
	return Source{
		Name: "Bitfinex",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/v2/ticker/t%sUSD", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp []decimal.Decimal
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("Bitfinex", "decode", err)
			}
			if len(resp) <= 6 {
				return decimal.Zero, domain.NewSourceError("Bitfinex", "extract", domain.ErrNoPrice)
			}
			return resp[6], nil
		},
	}
}

// Kraken keys the result by its own pair name (e.g. "XXBTZUSD"), so the
// extractor takes whatever single pair comes back; "c" holds [price, volume].
func Kraken(base string) Source {
	base = orDefault(base, "https://api.kraken.com")
	return Source{
		Name: "Kraken",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/0/public/Ticker?pair=%sUSD", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp struct {
				Result map[string]struct {
					C []decimal.Decimal `json:"c"`
				} `json:"result"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("Kraken", "decode", err)
			}
			for _, pair := range resp.Result {
				if len(pair.C) > 0 {
					return pair.C[0], nil
				}
			}
			return decimal.Zero, domain.NewSourceError("Kraken", "extract", domain.ErrNoPrice)
		},
	}
}

// Upbit quotes in KRW and is converted with the fixed divisor above.
func Upbit(base string) Source {
	base = orDefault(base, "https://api.upbit.com")
	return Source{
		Name: "Upbit",
		URL: func(symbol string) string {
			return fmt.Sprintf("%s/v1/ticker?markets=KRW-%s", base, symbol)
		},
		Extract: func(_ string, body []byte) (decimal.Decimal, error) {
			var resp []struct {
				TradePrice decimal.Decimal `json:"trade_price"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return decimal.Zero, domain.NewSourceError("Upbit", "decode", err)
			}
			if len(resp) == 0 {
				return decimal.Zero, domain.NewSourceError("Upbit", "extract", domain.ErrNoPrice)
			}
			return resp[0].TradePrice.Div(upbitKRWPerUSD), nil
		},
	}
}
