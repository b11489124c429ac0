package pricing

import "math"

// Upper bounds accepted for a shipment weight and for the global rate.
const (
	MaxWeightKg             = 100_000
	MaxUnitPricePerKg int64 = 1_000_000_000_000
)

// Totals aggregates the derived monetary fields of a shipment charge.
type Totals struct {
	// TotalPembayaran is the cost side: base jastip plus base ongkir.
	TotalPembayaran float64 `json:"totalPembayaran"`
	// LineTotal is the customer-facing charge: both markups combined.
	LineTotal float64 `json:"lineTotal"`
	// TotalKeuntungan is LineTotal minus TotalPembayaran. It may be negative.
	TotalKeuntungan float64 `json:"totalKeuntungan"`
}

// CeilKg returns the billed kilograms for a weight. Partial kilograms are
// billed as full ones and negative or non-finite weights count as zero.
// Weights beyond the int64 range saturate at math.MaxInt64.
func CeilKg(weightKg float64) int64 {
	if !finite(weightKg) || weightKg <= 0 {
		return 0
	}
	kg := math.Ceil(weightKg)
	if kg >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(kg)
}

// ComputeBase returns ceil(max(0, weightKg)) * unitPricePerKg. The product is
// taken in float64 and saturates at math.MaxFloat64, so it is never negative.
func ComputeBase(weightKg float64, unitPricePerKg int64) float64 {
	if unitPricePerKg <= 0 || !finite(weightKg) || weightKg <= 0 {
		return 0
	}
	base := math.Ceil(weightKg) * float64(unitPricePerKg)
	if math.IsInf(base, 1) {
		return math.MaxFloat64
	}
	return base
}

// ComputeTotals derives payment, line total and profit from the four cost
// components. Non-finite inputs are treated as zero.
func ComputeTotals(baseJastip, jastipMarkup, baseOngkir, ongkirMarkup float64) Totals {
	baseJastip = Coerce(baseJastip)
	jastipMarkup = Coerce(jastipMarkup)
	baseOngkir = Coerce(baseOngkir)
	ongkirMarkup = Coerce(ongkirMarkup)

	payment := baseJastip + baseOngkir
	line := jastipMarkup + ongkirMarkup
	return Totals{
		TotalPembayaran: payment,
		LineTotal:       line,
		TotalKeuntungan: line - payment,
	}
}

// Coerce maps NaN and infinities to zero and leaves every other value as is.
func Coerce(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return v
}

// NonNegative maps non-finite and negative values to zero.
func NonNegative(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
