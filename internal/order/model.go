package order

import (
	"time"

	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// Order is the persisted jastip order. The four base/markup amounts are
// pointers because records imported before normalisation may lack them;
// Normalize always fills them in.
type Order struct {
	ID                string           `json:"id"`
	Customer          string           `json:"customer"`
	JumlahKg          float64          `json:"jumlahKg"`
	KgCeil            int64            `json:"kgCeil"`
	HargaJastip       *float64         `json:"hargaJastip"`
	HargaJastipMarkup *float64         `json:"hargaJastipMarkup"`
	HargaOngkir       *float64         `json:"hargaOngkir"`
	HargaOngkirMarkup *float64         `json:"hargaOngkirMarkup"`
	TotalPembayaran   float64          `json:"totalPembayaran"`
	TotalKeuntungan   float64          `json:"totalKeuntungan"`
	Currency          pricing.Currency `json:"currency"`
	Status            Status           `json:"status"`
	Notes             string           `json:"notes,omitempty"`
	Computed          Computed         `json:"_computed"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// Computed records the pricing context in effect when the order was saved so
// later changes to the global unit price never rewrite historical totals.
type Computed struct {
	UnitPriceAtSave int64 `json:"unitPriceAtSave"`
	UseAutoJastip   bool  `json:"useAutoJastip"`
}

// Form carries raw order form state as submitted by the dashboard.
type Form struct {
	Customer          string            `json:"customer"`
	JumlahKg          pricing.RawNumber `json:"jumlahKg"`
	HargaJastip       pricing.RawNumber `json:"hargaJastip"`
	HargaJastipMarkup pricing.RawNumber `json:"hargaJastipMarkup"`
	HargaOngkir       pricing.RawNumber `json:"hargaOngkir"`
	HargaOngkirMarkup pricing.RawNumber `json:"hargaOngkirMarkup"`
	Currency          string            `json:"currency"`
	TipeNominal       string            `json:"tipeNominal"`
	Status            string            `json:"status"`
	Notes             string            `json:"notes"`
	UseAutoJastip     bool              `json:"useAutoJastip"`
}

// Snapshot is the global pricing configuration captured at normalisation time.
type Snapshot struct {
	UnitPricePerKg int64
}

func amountOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return pricing.NonNegative(*p)
}

func ptr(v float64) *float64 {
	return &v
}
