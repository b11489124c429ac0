package tracking_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/tracking"
)

type memStore struct {
	items    map[string]tracking.Item
	writeErr error
}

func newMemStore() *memStore { return &memStore{items: map[string]tracking.Item{}} }

func (m *memStore) Insert(_ context.Context, it tracking.Item) (tracking.Item, error) {
	if m.writeErr != nil {
		return tracking.Item{}, m.writeErr
	}
	it.ID = uuid.NewString()
	m.items[it.ID] = it
	return it, nil
}

func (m *memStore) Update(_ context.Context, it tracking.Item) (tracking.Item, error) {
	if m.writeErr != nil {
		return tracking.Item{}, m.writeErr
	}
	if _, ok := m.items[it.ID]; !ok {
		return tracking.Item{}, pgx.ErrNoRows
	}
	m.items[it.ID] = it
	return it, nil
}

func (m *memStore) Get(_ context.Context, id string) (tracking.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return tracking.Item{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *memStore) List(_ context.Context, q tracking.Query) ([]tracking.Item, int64, error) {
	var out []tracking.Item
	for _, it := range m.items {
		if q.Customer != "" && it.Customer != q.Customer {
			continue
		}
		if q.Purchased != nil && it.Purchased != *q.Purchased {
			continue
		}
		out = append(out, it)
	}
	return out, int64(len(out)), nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *memStore) MarkPurchased(_ context.Context, id, trackingNumber string) (tracking.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return tracking.Item{}, pgx.ErrNoRows
	}
	if !it.Purchased {
		now := time.Now()
		it.PurchasedAt = &now
	}
	it.Purchased = true
	if trackingNumber != "" {
		it.TrackingNumber = trackingNumber
	}
	m.items[id] = it
	return it, nil
}

func TestCreateValidatesItem(t *testing.T) {
	svc := &tracking.Service{Store: newMemStore()}
	ctx := context.Background()

	it, err := svc.Create(ctx, tracking.Input{Customer: "Budi", ItemName: "Sepatu", Quantity: 2, Price: 89.9, Currency: "sgd"})
	require.NoError(t, err)
	require.Equal(t, "SGD", string(it.Currency))
	require.False(t, it.Purchased)

	bad := []tracking.Input{
		{Customer: "", ItemName: "x", Quantity: 1},
		{Customer: "a", ItemName: "x", Quantity: 0},
		{Customer: "a", ItemName: "x", Quantity: 1, Price: -1},
		{Customer: "a", ItemName: "x", Quantity: 1, Currency: "ZZZ"},
		{Customer: "a", ItemName: "x", Quantity: 1, OrderID: "123"},
	}
	for _, in := range bad {
		_, err := svc.Create(ctx, in)
		require.True(t, common.IsAppError(err), "input %+v", in)
	}
}

func TestMarkPurchasedKeepsTrackingNumber(t *testing.T) {
	store := newMemStore()
	svc := &tracking.Service{Store: store}
	ctx := context.Background()

	it, err := svc.Create(ctx, tracking.Input{Customer: "Sari", ItemName: "Tas", Quantity: 1})
	require.NoError(t, err)

	first, err := svc.MarkPurchased(ctx, it.ID, " JP123 ")
	require.NoError(t, err)
	require.True(t, first.Purchased)
	require.Equal(t, "JP123", first.TrackingNumber)
	require.NotNil(t, first.PurchasedAt)

	again, err := svc.MarkPurchased(ctx, it.ID, "")
	require.NoError(t, err)
	require.Equal(t, "JP123", again.TrackingNumber)
	require.Equal(t, first.PurchasedAt, again.PurchasedAt)

	purchased := false
	open, total, err := svc.List(ctx, tracking.Query{Purchased: &purchased})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, open)
}

func TestWriteWithUnknownOrder(t *testing.T) {
	store := newMemStore()
	svc := &tracking.Service{Store: store}
	ctx := context.Background()

	it, err := svc.Create(ctx, tracking.Input{Customer: "Sari", ItemName: "Tas", Quantity: 1})
	require.NoError(t, err)

	store.writeErr = &pgconn.PgError{Code: "23503"}
	in := tracking.Input{Customer: "Sari", ItemName: "Tas", Quantity: 1, OrderID: uuid.NewString()}

	_, err = svc.Create(ctx, in)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
	require.Equal(t, "ORDER_NOT_FOUND", appErr.Code)

	_, err = svc.Update(ctx, it.ID, in)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ORDER_NOT_FOUND", appErr.Code)
}

func TestMissingItem(t *testing.T) {
	svc := &tracking.Service{Store: newMemStore()}
	_, err := svc.MarkPurchased(context.Background(), uuid.NewString(), "")
	require.True(t, common.IsAppError(err))
	require.Contains(t, err.Error(), "not found")
}

func TestHandlerPurchaseWithoutBody(t *testing.T) {
	store := newMemStore()
	svc := &tracking.Service{Store: store}
	r := chi.NewRouter()
	r.Route("/tracking-items", (&tracking.Handler{Svc: svc}).Routes)

	req := httptest.NewRequest(http.MethodPost, "/tracking-items", strings.NewReader(`{"customer":"Andi","itemName":"Kopi","quantity":3,"price":12000}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var id string
	for k := range store.items {
		id = k
	}
	req = httptest.NewRequest(http.MethodPost, "/tracking-items/"+id+"/purchase", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(t, store.items[id].Purchased)

	req = httptest.NewRequest(http.MethodGet, "/tracking-items?purchased=maybe", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/tracking-items", strings.NewReader(`{"customer":"Andi","itemName":"Kopi","quantity":0}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
