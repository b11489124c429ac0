package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/obs"
	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// Input is a new ledger entry as submitted by the dashboard.
type Input struct {
	Direction   string     `json:"direction" validate:"required"`
	Amount      float64    `json:"amount" validate:"gt=0"`
	Currency    string     `json:"currency"`
	Description string     `json:"description" validate:"required,max=500"`
	OrderID     string     `json:"orderId"`
	OccurredAt  *time.Time `json:"occurredAt"`
}

// Service records cash movements.
type Service struct {
	Store Store
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create validates and records an entry. OccurredAt defaults to now.
func (s *Service) Create(ctx context.Context, in Input) (Entry, error) {
	if s.Store == nil {
		return Entry{}, ErrStoreUnavailable
	}
	direction, ok := ParseDirection(in.Direction)
	if !ok {
		return Entry{}, common.BadRequest("direction must be in or out")
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount <= 0 {
		return Entry{}, common.BadRequest("amount must be positive")
	}
	currency, ok := pricing.ParseCurrency(in.Currency)
	if !ok {
		return Entry{}, common.BadRequest("unsupported currency " + string(currency))
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return Entry{}, common.BadRequest("description is required")
	}
	e := Entry{
		Direction:   direction,
		Amount:      in.Amount,
		Currency:    currency,
		Description: description,
		OccurredAt:  s.now().UTC(),
	}
	if in.OccurredAt != nil && !in.OccurredAt.IsZero() {
		e.OccurredAt = in.OccurredAt.UTC()
	}
	if id := strings.TrimSpace(in.OrderID); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return Entry{}, common.BadRequest("invalid order id")
		}
		e.OrderID = &id
	}
	created, err := s.Store.Insert(ctx, e)
	if err != nil {
		if e.OrderID != nil && common.IsForeignKeyViolation(err) {
			return Entry{}, common.OrderNotFound(*e.OrderID)
		}
		return Entry{}, fmt.Errorf("insert ledger entry: %w", err)
	}
	obs.CountLedgerEntry(string(direction))
	return created, nil
}

// List returns entries newest first.
func (s *Service) List(ctx context.Context, q Query) ([]Entry, int64, error) {
	if s.Store == nil {
		return nil, 0, ErrStoreUnavailable
	}
	if !q.From.IsZero() && !q.To.IsZero() && !q.From.Before(q.To) {
		return nil, 0, common.BadRequest("from must be before to")
	}
	return s.Store.List(ctx, q)
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.Store == nil {
		return ErrStoreUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return common.BadRequest("invalid entry id")
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFound("ledger entry")
		}
		return fmt.Errorf("delete ledger entry: %w", err)
	}
	return nil
}

// Balance sums entries in the optional range per currency. Currencies are
// never converted into each other.
func (s *Service) Balance(ctx context.Context, from, to time.Time) ([]Balance, error) {
	if s.Store == nil {
		return nil, ErrStoreUnavailable
	}
	rows, err := s.Store.Totals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger totals: %w", err)
	}
	return Balances(rows), nil
}
