package order

import (
	"strings"

	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// Validation problem codes reported by Normalize.
const (
	ProblemCustomerRequired    = "CUSTOMER_REQUIRED"
	ProblemWeightOutOfRange    = "WEIGHT_OUT_OF_RANGE"
	ProblemNegativeProfit      = "NEGATIVE_PROFIT"
	ProblemUnsupportedCurrency = "UNSUPPORTED_CURRENCY"
	ProblemInvalidStatus       = "INVALID_STATUS"
)

// Problem is a blocking validation condition that prevents persistence.
type Problem struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of normalising a form. Order is always populated so
// the dashboard can show live totals; it is only persisted when Ready.
type Result struct {
	Order    Order          `json:"order"`
	Totals   pricing.Totals `json:"totals"`
	Problems []Problem      `json:"problems"`
	Ready    bool           `json:"ready"`
}

// Normalize turns raw form state into a save-ready order record. In auto mode
// both bases derive from the weight and the snapshot unit price and blank
// markups default to their base; in manual mode blank values are zero.
func Normalize(form Form, snap Snapshot) Result {
	unitPrice := snap.UnitPricePerKg
	if unitPrice < 0 {
		unitPrice = 0
	}
	kg := pricing.ParseWeight(form.JumlahKg.String())

	var baseJastip, jastipMarkup, baseOngkir, ongkirMarkup float64
	if form.UseAutoJastip {
		base := pricing.ComputeBase(kg, unitPrice)
		baseJastip, baseOngkir = base, base
		jastipMarkup = amountOr(form.HargaJastipMarkup, baseJastip)
		ongkirMarkup = amountOr(form.HargaOngkirMarkup, baseOngkir)
	} else {
		baseJastip = form.HargaJastip.Amount()
		baseOngkir = form.HargaOngkir.Amount()
		jastipMarkup = form.HargaJastipMarkup.Amount()
		ongkirMarkup = form.HargaOngkirMarkup.Amount()
	}
	totals := pricing.ComputeTotals(baseJastip, jastipMarkup, baseOngkir, ongkirMarkup)

	problems := []Problem{}
	customer := strings.TrimSpace(form.Customer)
	if customer == "" {
		problems = append(problems, Problem{Field: "customer", Code: ProblemCustomerRequired, Message: "customer name is required"})
	}
	if kg > pricing.MaxWeightKg {
		problems = append(problems, Problem{Field: "jumlahKg", Code: ProblemWeightOutOfRange, Message: "weight exceeds the maximum shipment weight"})
	}
	if totals.TotalKeuntungan < 0 {
		problems = append(problems, Problem{Field: "totalKeuntungan", Code: ProblemNegativeProfit, Message: "markups must cover base costs; profit cannot be negative"})
	}
	rawCurrency := form.Currency
	if strings.TrimSpace(rawCurrency) == "" {
		rawCurrency = form.TipeNominal
	}
	currency, ok := pricing.ParseCurrency(rawCurrency)
	if !ok {
		problems = append(problems, Problem{Field: "currency", Code: ProblemUnsupportedCurrency, Message: "currency " + string(currency) + " is not supported"})
	}
	status, ok := ParseStatus(form.Status)
	if !ok {
		problems = append(problems, Problem{Field: "status", Code: ProblemInvalidStatus, Message: "unknown order status"})
	}

	return Result{
		Order: Order{
			Customer:          customer,
			JumlahKg:          kg,
			KgCeil:            pricing.CeilKg(kg),
			HargaJastip:       ptr(baseJastip),
			HargaJastipMarkup: ptr(jastipMarkup),
			HargaOngkir:       ptr(baseOngkir),
			HargaOngkirMarkup: ptr(ongkirMarkup),
			TotalPembayaran:   totals.TotalPembayaran,
			TotalKeuntungan:   totals.TotalKeuntungan,
			Currency:          currency,
			Status:            status,
			Notes:             strings.TrimSpace(form.Notes),
			Computed: Computed{
				UnitPriceAtSave: unitPrice,
				UseAutoJastip:   form.UseAutoJastip,
			},
		},
		Totals:   totals,
		Problems: problems,
		Ready:    len(problems) == 0,
	}
}

// Seed rebuilds form state from a stored order, used when an order is opened
// for editing.
func Seed(o Order) Form {
	return Form{
		Customer:          o.Customer,
		JumlahKg:          pricing.RawFromFloat(o.JumlahKg),
		HargaJastip:       rawOf(o.HargaJastip),
		HargaJastipMarkup: rawOf(o.HargaJastipMarkup),
		HargaOngkir:       rawOf(o.HargaOngkir),
		HargaOngkirMarkup: rawOf(o.HargaOngkirMarkup),
		Currency:          string(o.Currency.OrDefault()),
		Status:            string(o.Status),
		Notes:             o.Notes,
		UseAutoJastip:     o.Computed.UseAutoJastip,
	}
}

func amountOr(raw pricing.RawNumber, fallback float64) float64 {
	if !raw.Present() {
		return fallback
	}
	return raw.Amount()
}

func rawOf(p *float64) pricing.RawNumber {
	if p == nil {
		return pricing.RawNumber{}
	}
	return pricing.RawFromFloat(*p)
}
