package order

import (
	"strings"

	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// Filter narrows a set of orders. A non-empty IDs list takes precedence over
// the customer filter.
type Filter struct {
	Customer string   `json:"customer,omitempty"`
	IDs      []string `json:"itemIds,omitempty"`
}

// Match reports whether the order is selected by the filter.
func (f Filter) Match(o Order) bool {
	if len(f.IDs) > 0 {
		for _, id := range f.IDs {
			if id == o.ID {
				return true
			}
		}
		return false
	}
	if customer := strings.TrimSpace(f.Customer); customer != "" {
		return strings.TrimSpace(o.Customer) == customer
	}
	return true
}

// Line is the per-order breakdown shown in the order list and on invoices.
type Line struct {
	ID           string           `json:"id"`
	Customer     string           `json:"customer"`
	Kg           int64            `json:"kg"`
	JastipMarkup float64          `json:"jastipMarkup"`
	OngkirMarkup float64          `json:"ongkirMarkup"`
	LineTotal    float64          `json:"lineTotal"`
	Keuntungan   float64          `json:"keuntungan"`
	Currency     pricing.Currency `json:"currency"`
}

// Summary rolls up the lines of a filtered order set.
type Summary struct {
	Lines         []Line           `json:"lines"`
	Subtotal      float64          `json:"subtotal"`
	Currency      pricing.Currency `json:"currency"`
	MixedCurrency bool             `json:"mixedCurrency"`
}

// LineFor recomputes the breakdown of a stored order. Stored base jastip wins;
// the current unit price is only used when that amount is missing.
func LineFor(o Order, currentUnitPrice int64) Line {
	baseJastip := amountOf(o.HargaJastip)
	if o.HargaJastip == nil {
		baseJastip = pricing.ComputeBase(o.JumlahKg, currentUnitPrice)
	}
	jastipMarkup := amountOf(o.HargaJastipMarkup)
	ongkirMarkup := amountOf(o.HargaOngkirMarkup)
	totals := pricing.ComputeTotals(baseJastip, jastipMarkup, amountOf(o.HargaOngkir), ongkirMarkup)
	return Line{
		ID:           o.ID,
		Customer:     o.Customer,
		Kg:           pricing.CeilKg(o.JumlahKg),
		JastipMarkup: jastipMarkup,
		OngkirMarkup: ongkirMarkup,
		LineTotal:    totals.LineTotal,
		Keuntungan:   totals.TotalKeuntungan,
		Currency:     o.Currency.OrDefault(),
	}
}

// Aggregate filters orders, preserving their order, and sums line totals.
// The summary adopts the first non-blank currency and flags mixed sets
// instead of converting between currencies. Blank currencies count as the
// default when checking for a mix.
func Aggregate(orders []Order, filter Filter, currentUnitPrice int64) Summary {
	summary := Summary{Lines: []Line{}, Currency: pricing.DefaultCurrency}
	adopted := false
	for _, o := range orders {
		if !filter.Match(o) {
			continue
		}
		line := LineFor(o, currentUnitPrice)
		if !adopted && o.Currency != "" {
			summary.Currency = o.Currency
			adopted = true
		}
		summary.Lines = append(summary.Lines, line)
		summary.Subtotal += line.LineTotal
	}
	for _, line := range summary.Lines {
		if line.Currency != summary.Currency {
			summary.MixedCurrency = true
			break
		}
	}
	return summary
}
