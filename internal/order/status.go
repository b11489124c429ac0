package order

import "strings"

// Status tracks where an order is in the purchase and delivery flow.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPurchased Status = "purchased"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

// ParseStatus normalises a status string; blank input maps to pending.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return StatusPending, true
	}
	return s, s.rank() >= 0
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusPurchased:
		return 1
	case StatusShipped:
		return 2
	case StatusDelivered:
		return 3
	case StatusCanceled:
		return 4
	}
	return -1
}

// Final reports whether no further transitions are possible.
func (s Status) Final() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// CanTransition reports whether an order may move from s to next. Progress is
// forward only; cancelation is allowed from any non-final state.
func (s Status) CanTransition(next Status) bool {
	if s.Final() || next.rank() < 0 {
		return false
	}
	if next == StatusCanceled {
		return true
	}
	return next.rank() > s.rank()
}
