package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCurrencyCode_Valid(t *testing.T) {
	for _, code := range SupportedCurrencies {
		if !code.Valid() {
			t.Errorf("%s should be valid", code)
		}
	}
	if CurrencyCode("JPY").Valid() {
		t.Error("JPY should not be valid")
	}
}

func TestCurrencyCode_Glyph(t *testing.T) {
	cases := map[CurrencyCode]string{
		USD: "$",
		EUR: "€",
		RUB: "₽",
		UAH: "₴",
		KZT: "₸",
		// Unknown codes render as dollars
		CurrencyCode("XXX"): "$",
	}
	for code, want := range cases {
		if got := code.Glyph(); got != want {
			t.Errorf("%s glyph = %s, want %s", code, got, want)
		}
	}
}

func TestFormatPrice_PrecisionTiers(t *testing.T) {
	cases := []struct {
		price float64
		code  CurrencyCode
		want  string
	}{
		{50000, USD, "$50,000.00"},
		{1234567.891, USD, "$1,234,567.89"},
		{1000, USD, "$1,000.00"},
		{999.99, USD, "$999.99"},
		{1, USD, "$1.00"},
		{0.5432, USD, "$0.5432"},
		{0.01, USD, "$0.0100"},
		{0.00012345, USD, "$0.00012345"},
		{92.5, RUB, "₽92.50"},
		{43000.1, EUR, "€43,000.10"},
	}

	for _, c := range cases {
		got := FormatPrice(decimal.NewFromFloat(c.price), c.code)
		if got != c.want {
			t.Errorf("FormatPrice(%v, %s) = %s, want %s", c.price, c.code, got, c.want)
		}
	}
}

func TestQuote_Resolved(t *testing.T) {
	q := Quote{Symbol: "BTC"}
	if q.Resolved() {
		t.Error("Quote without price must not be resolved")
	}

	price := decimal.NewFromInt(50000)
	q.PriceUSD = &price
	if !q.Resolved() {
		t.Error("Quote with price must be resolved")
	}
}
