package tracking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/pricing"
)

// Input is the writable part of a tracked item.
type Input struct {
	Customer       string  `json:"customer" validate:"required,max=120"`
	ItemName       string  `json:"itemName" validate:"required,max=200"`
	Store          string  `json:"store" validate:"max=120"`
	Quantity       int     `json:"quantity" validate:"gte=1"`
	Price          float64 `json:"price" validate:"gte=0"`
	Currency       string  `json:"currency"`
	Purchased      bool    `json:"purchased"`
	TrackingNumber string  `json:"trackingNumber" validate:"max=80"`
	OrderID        string  `json:"orderId"`
}

// Service manages purchase-tracking items.
type Service struct {
	Store Store
}

func (in Input) item() (Item, error) {
	it := Item{
		Customer:       strings.TrimSpace(in.Customer),
		ItemName:       strings.TrimSpace(in.ItemName),
		Store:          strings.TrimSpace(in.Store),
		Quantity:       in.Quantity,
		Purchased:      in.Purchased,
		TrackingNumber: strings.TrimSpace(in.TrackingNumber),
	}
	if it.Customer == "" || it.ItemName == "" {
		return Item{}, common.BadRequest("customer and itemName are required")
	}
	if it.Quantity < 1 {
		return Item{}, common.BadRequest("quantity must be at least 1")
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price < 0 {
		return Item{}, common.BadRequest("price must not be negative")
	}
	it.Price = in.Price
	currency, ok := pricing.ParseCurrency(in.Currency)
	if !ok {
		return Item{}, common.BadRequest("unsupported currency " + string(currency))
	}
	it.Currency = currency
	if id := strings.TrimSpace(in.OrderID); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return Item{}, common.BadRequest("invalid order id")
		}
		it.OrderID = &id
	}
	return it, nil
}

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.BadRequest("invalid item id")
	}
	return nil
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NotFound("tracking item")
	}
	return fmt.Errorf("%s: %w", op, err)
}

func writeErr(err error, it Item, op string) error {
	if it.OrderID != nil && common.IsForeignKeyViolation(err) {
		return common.OrderNotFound(*it.OrderID)
	}
	return notFound(err, op)
}

// Create records a new item to buy.
func (s *Service) Create(ctx context.Context, in Input) (Item, error) {
	if s.Store == nil {
		return Item{}, ErrStoreUnavailable
	}
	it, err := in.item()
	if err != nil {
		return Item{}, err
	}
	created, err := s.Store.Insert(ctx, it)
	if err != nil {
		return Item{}, writeErr(err, it, "insert tracking item")
	}
	return created, nil
}

// Update replaces an item.
func (s *Service) Update(ctx context.Context, id string, in Input) (Item, error) {
	if s.Store == nil {
		return Item{}, ErrStoreUnavailable
	}
	if err := validID(id); err != nil {
		return Item{}, err
	}
	it, err := in.item()
	if err != nil {
		return Item{}, err
	}
	it.ID = id
	updated, err := s.Store.Update(ctx, it)
	if err != nil {
		return Item{}, writeErr(err, it, "update tracking item")
	}
	return updated, nil
}

// Get loads an item.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	if s.Store == nil {
		return Item{}, ErrStoreUnavailable
	}
	if err := validID(id); err != nil {
		return Item{}, err
	}
	it, err := s.Store.Get(ctx, id)
	if err != nil {
		return Item{}, notFound(err, "get tracking item")
	}
	return it, nil
}

// List returns items still to buy first.
func (s *Service) List(ctx context.Context, q Query) ([]Item, int64, error) {
	if s.Store == nil {
		return nil, 0, ErrStoreUnavailable
	}
	q.Customer = strings.TrimSpace(q.Customer)
	return s.Store.List(ctx, q)
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.Store == nil {
		return ErrStoreUnavailable
	}
	if err := validID(id); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return notFound(err, "delete tracking item")
	}
	return nil
}

// MarkPurchased flags an item as bought. A blank tracking number keeps the
// stored one. Marking twice is harmless.
func (s *Service) MarkPurchased(ctx context.Context, id, trackingNumber string) (Item, error) {
	if s.Store == nil {
		return Item{}, ErrStoreUnavailable
	}
	if err := validID(id); err != nil {
		return Item{}, err
	}
	it, err := s.Store.MarkPurchased(ctx, id, strings.TrimSpace(trackingNumber))
	if err != nil {
		return Item{}, notFound(err, "mark tracking item purchased")
	}
	return it, nil
}
