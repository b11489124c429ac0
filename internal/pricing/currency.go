package pricing

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is an ISO 4217 code tagging every monetary amount.
type Currency string

// DefaultCurrency applies whenever a record carries no currency.
const DefaultCurrency Currency = "IDR"

var knownCurrencies = map[Currency]string{
	"IDR": "Rp",
	"MYR": "RM",
	"SGD": "S$",
	"USD": "$",
	"JPY": "¥",
	"KRW": "₩",
	"CNY": "CN¥",
	"HKD": "HK$",
}

// ParseCurrency normalises a currency tag. Blank input maps to DefaultCurrency.
// The boolean reports whether the code is supported.
func ParseCurrency(raw string) (Currency, bool) {
	code := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	if code == "" {
		return DefaultCurrency, true
	}
	_, ok := knownCurrencies[code]
	return code, ok
}

// OrDefault returns c, or DefaultCurrency when c is blank.
func (c Currency) OrDefault() Currency {
	if strings.TrimSpace(string(c)) == "" {
		return DefaultCurrency
	}
	return c
}

// Symbol returns the display symbol, falling back to the code itself.
func (c Currency) Symbol() string {
	if sym, ok := knownCurrencies[c.OrDefault()]; ok {
		return sym
	}
	return string(c)
}

// SupportedCurrencies lists every accepted code.
func SupportedCurrencies() []Currency {
	out := make([]Currency, 0, len(knownCurrencies))
	for code := range knownCurrencies {
		out = append(out, code)
	}
	return out
}

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatAmount renders an amount for display, rounded to the nearest whole
// unit with Indonesian digit grouping, e.g. "Rp 1.250.000".
func FormatAmount(amount float64, currency Currency) string {
	rounded := int64(math.Round(Coerce(amount)))
	return currency.Symbol() + " " + idPrinter.Sprintf("%d", rounded)
}
