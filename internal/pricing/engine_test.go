package pricing

import (
	"math"
	"testing"
)

func TestComputeBaseRoundsKilogramsUp(t *testing.T) {
	cases := []struct {
		name  string
		kg    float64
		price int64
		want  float64
	}{
		{"fractional", 1.2, 100_000, 200_000},
		{"whole", 3, 100_000, 300_000},
		{"tiny", 0.01, 85_000, 85_000},
		{"zero", 0, 100_000, 0},
		{"negative weight", -5, 100_000, 0},
		{"nan weight", math.NaN(), 100_000, 0},
		{"inf weight", math.Inf(1), 100_000, 0},
		{"negative price", 2, -10, 0},
		{"huge weight", 1e14, 100_000, 1e19},
		{"beyond int64 weight", 1e20, 100_000, 1e25},
		{"float overflow", math.MaxFloat64, MaxUnitPricePerKg, math.MaxFloat64},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeBase(tc.kg, tc.price); got != tc.want {
				t.Fatalf("ComputeBase(%v, %d) = %v, want %v", tc.kg, tc.price, got, tc.want)
			}
		})
	}
}

func TestCeilKgSaturates(t *testing.T) {
	if got := CeilKg(1e14); got != 100_000_000_000_000 {
		t.Fatalf("CeilKg(1e14) = %d", got)
	}
	if got := CeilKg(1e20); got != math.MaxInt64 {
		t.Fatalf("CeilKg(1e20) = %d, want MaxInt64", got)
	}
}

func TestComputeBaseMatchesCeilFormula(t *testing.T) {
	for kg := 0.0; kg < 20; kg += 0.37 {
		for _, price := range []int64{0, 1, 75_000, 120_000} {
			want := math.Ceil(kg) * float64(price)
			if got := ComputeBase(kg, price); got != want {
				t.Fatalf("kg=%v price=%d: got %v want %v", kg, price, got, want)
			}
		}
	}
}

func TestComputeTotals(t *testing.T) {
	got := ComputeTotals(200_000, 250_000, 200_000, 250_000)
	if got.TotalPembayaran != 400_000 {
		t.Fatalf("expected totalPembayaran 400000, got %v", got.TotalPembayaran)
	}
	if got.LineTotal != 500_000 {
		t.Fatalf("expected lineTotal 500000, got %v", got.LineTotal)
	}
	if got.TotalKeuntungan != 100_000 {
		t.Fatalf("expected totalKeuntungan 100000, got %v", got.TotalKeuntungan)
	}
}

func TestComputeTotalsCoercesNonFinite(t *testing.T) {
	got := ComputeTotals(math.NaN(), 50_000, math.Inf(-1), math.Inf(1))
	want := Totals{TotalPembayaran: 0, LineTotal: 50_000, TotalKeuntungan: 50_000}
	if got != want {
		t.Fatalf("unexpected totals %#v", got)
	}
}

func TestComputeTotalsIsDeterministic(t *testing.T) {
	first := ComputeTotals(120_000, 150_000, 80_000, 95_000)
	second := ComputeTotals(120_000, 150_000, 80_000, 95_000)
	if first != second {
		t.Fatalf("expected identical results, got %#v and %#v", first, second)
	}
	if first.TotalKeuntungan != first.LineTotal-first.TotalPembayaran {
		t.Fatalf("profit identity violated: %#v", first)
	}
}

func TestComputeTotalsAllowsNegativeProfit(t *testing.T) {
	got := ComputeTotals(100_000, 99_999, 0, 0)
	if got.TotalKeuntungan != -1 {
		t.Fatalf("expected -1 profit, got %v", got.TotalKeuntungan)
	}
}
