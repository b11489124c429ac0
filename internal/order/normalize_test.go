package order

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-jastip/internal/pricing"
)

func raw(s string) pricing.RawNumber { return pricing.NewRawNumber(s) }

func TestNormalizeAutoModeDerivesBases(t *testing.T) {
	res := Normalize(Form{
		Customer:          "  Budi ",
		JumlahKg:          raw("1.2"),
		HargaJastip:       raw("5"),
		HargaJastipMarkup: raw("250000"),
		HargaOngkirMarkup: raw("250000"),
		UseAutoJastip:     true,
	}, Snapshot{UnitPricePerKg: 100_000})

	require.True(t, res.Ready)
	require.Empty(t, res.Problems)
	o := res.Order
	require.Equal(t, "Budi", o.Customer)
	require.Equal(t, int64(2), o.KgCeil)
	require.Equal(t, 200_000.0, *o.HargaJastip)
	require.Equal(t, 200_000.0, *o.HargaOngkir)
	require.Equal(t, 400_000.0, o.TotalPembayaran)
	require.Equal(t, 100_000.0, o.TotalKeuntungan)
	require.Equal(t, 500_000.0, res.Totals.LineTotal)
	require.Equal(t, pricing.DefaultCurrency, o.Currency)
	require.Equal(t, StatusPending, o.Status)
	require.Equal(t, Computed{UnitPriceAtSave: 100_000, UseAutoJastip: true}, o.Computed)
}

func TestNormalizeAutoModeDefaultsBlankMarkupsToBase(t *testing.T) {
	res := Normalize(Form{Customer: "Sari", JumlahKg: raw("2.5"), UseAutoJastip: true}, Snapshot{UnitPricePerKg: 80_000})
	require.True(t, res.Ready)
	require.Equal(t, 240_000.0, *res.Order.HargaJastipMarkup)
	require.Equal(t, 240_000.0, *res.Order.HargaOngkirMarkup)
	require.Equal(t, 0.0, res.Order.TotalKeuntungan)
}

func TestNormalizeManualModeKeepsFrozenValues(t *testing.T) {
	res := Normalize(Form{
		Customer:          "Andi",
		JumlahKg:          raw("3"),
		HargaJastip:       raw("150000"),
		HargaJastipMarkup: raw("175000"),
		HargaOngkir:       raw("90000"),
		HargaOngkirMarkup: raw("100000"),
		TipeNominal:       "sgd",
	}, Snapshot{UnitPricePerKg: 100_000})

	require.True(t, res.Ready)
	require.Equal(t, 150_000.0, *res.Order.HargaJastip)
	require.Equal(t, 90_000.0, *res.Order.HargaOngkir)
	require.Equal(t, 240_000.0, res.Order.TotalPembayaran)
	require.Equal(t, 35_000.0, res.Order.TotalKeuntungan)
	require.Equal(t, pricing.Currency("SGD"), res.Order.Currency)
	require.False(t, res.Order.Computed.UseAutoJastip)
}

func TestNormalizeCoercesGarbageToZero(t *testing.T) {
	res := Normalize(Form{
		Customer:          "Dewi",
		JumlahKg:          raw("-4"),
		HargaJastip:       raw("abc"),
		HargaJastipMarkup: raw("NaN"),
		HargaOngkir:       raw("-100"),
	}, Snapshot{UnitPricePerKg: -50})

	require.True(t, res.Ready)
	o := res.Order
	require.Equal(t, 0.0, o.JumlahKg)
	require.Equal(t, int64(0), o.KgCeil)
	for _, p := range []*float64{o.HargaJastip, o.HargaJastipMarkup, o.HargaOngkir, o.HargaOngkirMarkup} {
		require.NotNil(t, p)
		require.Equal(t, 0.0, *p)
	}
	require.Equal(t, int64(0), o.Computed.UnitPriceAtSave)
}

func TestNormalizeBlocksNegativeProfit(t *testing.T) {
	res := Normalize(Form{
		Customer:          "Eko",
		HargaJastip:       raw("100000"),
		HargaJastipMarkup: raw("99999"),
	}, Snapshot{UnitPricePerKg: 100_000})

	require.False(t, res.Ready)
	require.Equal(t, -1.0, res.Order.TotalKeuntungan)
	require.Len(t, res.Problems, 1)
	require.Equal(t, ProblemNegativeProfit, res.Problems[0].Code)
}

func TestNormalizeBlocksOversizedWeight(t *testing.T) {
	for _, kg := range []string{"1e14", "1e20"} {
		res := Normalize(Form{Customer: "A", JumlahKg: raw(kg), UseAutoJastip: true}, Snapshot{UnitPricePerKg: 100_000})
		require.False(t, res.Ready, kg)
		require.Equal(t, ProblemWeightOutOfRange, res.Problems[0].Code)
		require.Positive(t, res.Order.KgCeil)
		for _, p := range []*float64{res.Order.HargaJastip, res.Order.HargaJastipMarkup, res.Order.HargaOngkir, res.Order.HargaOngkirMarkup} {
			require.GreaterOrEqual(t, *p, 0.0)
		}
	}
}

func TestNormalizeAcceptsMaximumWeight(t *testing.T) {
	res := Normalize(Form{Customer: "A", JumlahKg: raw("100000"), UseAutoJastip: true}, Snapshot{UnitPricePerKg: 100_000})
	require.True(t, res.Ready)
	require.Equal(t, 1e10, *res.Order.HargaJastip)
}

func TestNormalizeBlocksMissingCustomer(t *testing.T) {
	res := Normalize(Form{Customer: "   ", JumlahKg: raw("1"), UseAutoJastip: true}, Snapshot{UnitPricePerKg: 1})
	require.False(t, res.Ready)
	require.Equal(t, ProblemCustomerRequired, res.Problems[0].Code)
}

func TestNormalizeReportsEveryProblem(t *testing.T) {
	res := Normalize(Form{
		HargaJastip: raw("10"),
		Currency:    "ABC",
		Status:      "lost",
	}, Snapshot{})
	require.False(t, res.Ready)
	codes := make([]string, 0, len(res.Problems))
	for _, p := range res.Problems {
		codes = append(codes, p.Code)
	}
	require.Equal(t, []string{ProblemCustomerRequired, ProblemNegativeProfit, ProblemUnsupportedCurrency, ProblemInvalidStatus}, codes)
}

func TestSeedRoundTripsThroughNormalize(t *testing.T) {
	first := Normalize(Form{
		Customer:          "Gita",
		JumlahKg:          raw("1.7"),
		HargaJastipMarkup: raw("210000"),
		HargaOngkirMarkup: raw("205000"),
		Currency:          "IDR",
		Status:            "purchased",
		UseAutoJastip:     true,
	}, Snapshot{UnitPricePerKg: 100_000})
	require.True(t, first.Ready)

	again := Normalize(Seed(first.Order), Snapshot{UnitPricePerKg: 100_000})
	require.True(t, again.Ready)
	require.Equal(t, first.Order, again.Order)
}

func TestSeedLeavesMissingAmountsBlank(t *testing.T) {
	form := Seed(Order{Customer: "Hendra", JumlahKg: 2})
	require.False(t, form.HargaJastip.Present())
	require.Equal(t, "2", form.JumlahKg.String())
	require.Equal(t, "IDR", form.Currency)
}
