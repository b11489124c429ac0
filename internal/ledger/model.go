package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// Direction says whether cash came in or went out.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// ParseDirection normalises a direction tag.
func ParseDirection(raw string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(raw))); d {
	case DirectionIn, DirectionOut:
		return d, true
	default:
		return "", false
	}
}

// Entry is one cash movement.
type Entry struct {
	ID          string           `json:"id"`
	Direction   Direction        `json:"direction"`
	Amount      float64          `json:"amount"`
	Currency    pricing.Currency `json:"currency"`
	Description string           `json:"description"`
	OrderID     *string          `json:"orderId,omitempty"`
	OccurredAt  time.Time        `json:"occurredAt"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Query narrows the entry list. Zero values disable a filter.
type Query struct {
	From      time.Time
	To        time.Time
	Direction Direction
	Limit     int
	Offset    int
}

// Balance holds the totals for one currency.
type Balance struct {
	Currency pricing.Currency `json:"currency"`
	In       float64          `json:"in"`
	Out      float64          `json:"out"`
	Net      float64          `json:"net"`
}

// Totals is a per-currency sum of entries in one direction.
type Totals struct {
	Currency  pricing.Currency
	Direction Direction
	Sum       float64
}

// Balances folds directional totals into one Balance per currency, ordered by code.
func Balances(rows []Totals) []Balance {
	byCurrency := make(map[pricing.Currency]*Balance)
	for _, row := range rows {
		cur := row.Currency.OrDefault()
		b, ok := byCurrency[cur]
		if !ok {
			b = &Balance{Currency: cur}
			byCurrency[cur] = b
		}
		switch row.Direction {
		case DirectionIn:
			b.In += pricing.Coerce(row.Sum)
		case DirectionOut:
			b.Out += pricing.Coerce(row.Sum)
		}
	}
	out := make([]Balance, 0, len(byCurrency))
	for _, b := range byCurrency {
		b.Net = b.In - b.Out
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
