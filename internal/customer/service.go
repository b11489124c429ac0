package customer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-jastip/internal/common"
)

// Input is the writable part of a customer.
type Input struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"max=40"`
	Address string `json:"address" validate:"max=500"`
	Notes   string `json:"notes" validate:"max=1000"`
}

// Service implements customer management.
type Service struct {
	Store Store
}

func (in Input) customer() (Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Customer{}, common.BadRequest("name is required")
	}
	return Customer{
		Name:    name,
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		Notes:   strings.TrimSpace(in.Notes),
	}, nil
}

// Create registers a customer. Names are unique.
func (s *Service) Create(ctx context.Context, in Input) (Customer, error) {
	if s.Store == nil {
		return Customer{}, ErrStoreUnavailable
	}
	c, err := in.customer()
	if err != nil {
		return Customer{}, err
	}
	created, err := s.Store.Insert(ctx, c)
	if err != nil {
		return Customer{}, translate(err, "create customer")
	}
	return created, nil
}

// Update replaces the customer's details.
func (s *Service) Update(ctx context.Context, id string, in Input) (Customer, error) {
	if s.Store == nil {
		return Customer{}, ErrStoreUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return Customer{}, common.BadRequest("invalid customer id")
	}
	c, err := in.customer()
	if err != nil {
		return Customer{}, err
	}
	c.ID = id
	updated, err := s.Store.Update(ctx, c)
	if err != nil {
		return Customer{}, translate(err, "update customer")
	}
	return updated, nil
}

// Get loads a customer by id.
func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	if s.Store == nil {
		return Customer{}, ErrStoreUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return Customer{}, common.BadRequest("invalid customer id")
	}
	c, err := s.Store.Get(ctx, id)
	if err != nil {
		return Customer{}, translate(err, "get customer")
	}
	return c, nil
}

// List returns customers ordered by name, optionally filtered by a name fragment.
func (s *Service) List(ctx context.Context, search string, page common.Page) ([]Customer, int64, error) {
	if s.Store == nil {
		return nil, 0, ErrStoreUnavailable
	}
	return s.Store.List(ctx, strings.TrimSpace(search), page.PerPage, page.Offset())
}

// Delete removes a customer. Orders keep the customer name they were saved with.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.Store == nil {
		return ErrStoreUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return common.BadRequest("invalid customer id")
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return translate(err, "delete customer")
	}
	return nil
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, ErrDuplicateName):
		return common.NewAppError("CUSTOMER_EXISTS", "a customer with this name already exists", http.StatusConflict, err)
	case errors.Is(err, pgx.ErrNoRows):
		return common.NotFound("customer")
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
