package invoice

import (
	"fmt"
	"time"

	"github.com/noah-isme/backend-jastip/internal/order"
	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// Status tracks the snapshot lifecycle of an issued invoice.
type Status string

const (
	StatusQueued Status = "queued"
	StatusReady  Status = "ready"
	StatusFailed Status = "failed"
)

// Invoice is a numbered, frozen aggregation of orders.
type Invoice struct {
	ID           string           `json:"id"`
	Number       string           `json:"number"`
	Filter       order.Filter     `json:"filter"`
	Status       Status           `json:"status"`
	Lines        []order.Line     `json:"lines"`
	Subtotal     float64          `json:"subtotal"`
	SubtotalText string           `json:"subtotalText,omitempty"`
	Currency     pricing.Currency `json:"currency"`
	Reason       string           `json:"reason,omitempty"`
	IssuedBy     string           `json:"issuedBy,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func (inv *Invoice) decorate() {
	if inv.Lines == nil {
		inv.Lines = []order.Line{}
	}
	inv.Currency = inv.Currency.OrDefault()
	if inv.Status == StatusReady {
		inv.SubtotalText = pricing.FormatAmount(inv.Subtotal, inv.Currency)
	}
}

// NumberPrefix returns the per-day prefix invoice numbers share, e.g. "INV-20240510-".
func NumberPrefix(day time.Time) string {
	return "INV-" + day.Format("20060102") + "-"
}

// FormatNumber renders the seq-th invoice number of the day.
func FormatNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s%03d", NumberPrefix(day), seq)
}
