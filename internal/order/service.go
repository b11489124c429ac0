package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/obs"
)

// PriceSource yields the global unit price that is current right now.
type PriceSource interface {
	UnitPricePerKg(ctx context.Context) (int64, error)
}

// Service orchestrates order persistence around the normaliser.
type Service struct {
	Store  Store
	Prices PriceSource
}

func (s *Service) snapshot(ctx context.Context) (Snapshot, error) {
	if s.Prices == nil {
		return Snapshot{}, errors.New("order: price source not configured")
	}
	price, err := s.Prices.UnitPricePerKg(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load unit price: %w", err)
	}
	return Snapshot{UnitPricePerKg: price}, nil
}

// Preview normalises a form without persisting it.
func (s *Service) Preview(ctx context.Context, form Form) (Result, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	return Normalize(form, snap), nil
}

// Create normalises and persists a new order. Blocking validation problems
// are returned as a 422 AppError carrying the problem list.
func (s *Service) Create(ctx context.Context, form Form) (Order, error) {
	if s.Store == nil {
		return Order{}, ErrStoreUnavailable
	}
	res, err := s.Preview(ctx, form)
	if err != nil {
		return Order{}, err
	}
	if !res.Ready {
		obs.CountOrderRejected(res.Problems[0].Code)
		return Order{}, rejected(res)
	}
	created, err := s.Store.InsertOrder(ctx, res.Order)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}
	obs.CountOrderSaved("create")
	return created, nil
}

// Update re-normalises an existing order with the current unit price. A blank
// status keeps the stored one; any other status must be a valid transition.
func (s *Service) Update(ctx context.Context, id string, form Form) (Order, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if form.Status == "" {
		form.Status = string(existing.Status)
	}
	res, err := s.Preview(ctx, form)
	if err != nil {
		return Order{}, err
	}
	if !res.Ready {
		obs.CountOrderRejected(res.Problems[0].Code)
		return Order{}, rejected(res)
	}
	if res.Order.Status != existing.Status && !existing.Status.CanTransition(res.Order.Status) {
		return Order{}, invalidTransition(existing.Status, res.Order.Status)
	}
	res.Order.ID = existing.ID
	updated, err := s.Store.UpdateOrder(ctx, res.Order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order")
		}
		return Order{}, fmt.Errorf("update order: %w", err)
	}
	obs.CountOrderSaved("update")
	return updated, nil
}

// Get loads a single order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	if s.Store == nil {
		return Order{}, ErrStoreUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return Order{}, common.BadRequest("invalid order id")
	}
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NotFound("order")
		}
		return Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// EditForm returns form state seeded from the stored order.
func (s *Service) EditForm(ctx context.Context, id string) (Form, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return Form{}, err
	}
	return Seed(o), nil
}

// List returns a page of orders, newest first.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Order, int64, error) {
	if s.Store == nil {
		return nil, 0, ErrStoreUnavailable
	}
	if q.Status != "" {
		status, ok := ParseStatus(string(q.Status))
		if !ok {
			return nil, 0, common.BadRequest("unknown order status")
		}
		q.Status = status
	}
	return s.Store.ListOrders(ctx, q)
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.Store == nil {
		return ErrStoreUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return common.BadRequest("invalid order id")
	}
	if err := s.Store.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFound("order")
		}
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// UpdateStatus moves an order to the target status if the transition is allowed.
func (s *Service) UpdateStatus(ctx context.Context, id, target string) (Order, error) {
	next, ok := ParseStatus(target)
	if !ok || target == "" {
		return Order{}, common.BadRequest("unsupported status")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !current.Status.CanTransition(next) {
		return Order{}, invalidTransition(current.Status, next)
	}
	updated, err := s.Store.SetOrderStatus(ctx, id, current.Status, next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, common.NewAppError("INVALID_STATE", "order status changed concurrently", http.StatusConflict, nil)
		}
		return Order{}, fmt.Errorf("set order status: %w", err)
	}
	return updated, nil
}

// Summarize aggregates the selected orders using the current unit price as a
// fallback for orders without a stored base jastip.
func (s *Service) Summarize(ctx context.Context, filter Filter) (Summary, error) {
	if s.Store == nil {
		return Summary{}, ErrStoreUnavailable
	}
	for _, id := range filter.IDs {
		if _, err := uuid.Parse(id); err != nil {
			return Summary{}, common.BadRequest("invalid order id " + id)
		}
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return Summary{}, err
	}
	orders, err := s.Store.SelectOrders(ctx, filter)
	if err != nil {
		return Summary{}, fmt.Errorf("select orders: %w", err)
	}
	return Aggregate(orders, filter, snap.UnitPricePerKg), nil
}

func rejected(res Result) error {
	return common.Unprocessable("VALIDATION_ERROR", res.Problems[0].Message, res.Problems)
}

func invalidTransition(from, to Status) error {
	return common.NewAppError("INVALID_STATE", fmt.Sprintf("cannot move order from %s to %s", from, to), http.StatusConflict, nil)
}
