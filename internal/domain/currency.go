package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyCode identifies one of the supported display currencies.
// All conversion is USD-based; USD always carries a rate of exactly 1.
type CurrencyCode string

const (
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	RUB CurrencyCode = "RUB"
	UAH CurrencyCode = "UAH"
	KZT CurrencyCode = "KZT"
)

// SupportedCurrencies lists every currency the rate table carries, USD first.
var SupportedCurrencies = []CurrencyCode{USD, EUR, RUB, UAH, KZT}

var currencyGlyphs = map[CurrencyCode]string{
	USD: "$",
	EUR: "€",
	RUB: "₽",
	UAH: "₴",
	KZT: "₸",
}

// Valid reports whether c is one of the supported currency codes.
func (c CurrencyCode) Valid() bool {
	_, ok := currencyGlyphs[c]
	return ok
}

// Glyph returns the display symbol for the currency. Unknown codes render as "$".
func (c CurrencyCode) Glyph() string {
	if g, ok := currencyGlyphs[c]; ok {
		return g
	}
	return "$"
}

var (
	thousand = decimal.NewFromInt(1000)
	one      = decimal.NewFromInt(1)
	cent     = decimal.NewFromFloat(0.01)
)

// FormatPrice renders an already-converted price with the currency glyph and
// magnitude-dependent precision: large prices get grouped 2dp, sub-cent prices
// keep 8 significant decimals.
func FormatPrice(price decimal.Decimal, code CurrencyCode) string {
	glyph := code.Glyph()
	switch {
	case price.GreaterThanOrEqual(thousand):
		return glyph + groupThousands(price.StringFixed(2))
	case price.GreaterThanOrEqual(one):
		return glyph + price.StringFixed(2)
	case price.GreaterThanOrEqual(cent):
		return glyph + price.StringFixed(4)
	default:
		return glyph + price.StringFixed(8)
	}
}

// groupThousands inserts comma separators into the integer part of a fixed
// decimal string, e.g. "1234567.89" -> "1,234,567.89".
func groupThousands(s string) string {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	if hasFrac {
		out += "." + fracPart
	}
	return out
}
