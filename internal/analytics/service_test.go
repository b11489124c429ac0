package analytics_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-jastip/internal/analytics"
	"github.com/noah-isme/backend-jastip/internal/pricing"
)

type stubStore struct {
	dailyCalls  int
	statusCalls int
	lastFrom    time.Time
	lastTo      time.Time
}

func (s *stubStore) DailyOrders(_ context.Context, from, to time.Time) ([]analytics.Daily, error) {
	s.dailyCalls++
	s.lastFrom, s.lastTo = from, to
	return []analytics.Daily{
		{Day: from, Currency: "IDR", Orders: 2, Kg: 3, Revenue: 700_000, Cost: 600_000, Profit: 100_000},
		{Day: from, Currency: "MYR", Orders: 1, Kg: 1, Revenue: 50, Cost: 40, Profit: 10},
		{Day: from.AddDate(0, 0, 1), Currency: "IDR", Orders: 1, Kg: 2, Revenue: 300_000, Cost: 200_000, Profit: 100_000},
	}, nil
}

func (s *stubStore) StatusCounts(context.Context) ([]analytics.StatusCount, error) {
	s.statusCalls++
	return []analytics.StatusCount{{Status: "pending", Orders: 3}, {Status: "shipped", Orders: 1}}, nil
}

func newService(t *testing.T) (*analytics.Service, *stubStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := &stubStore{}
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	return &analytics.Service{Store: store, R: rdb, TTL: time.Minute, DefaultRange: 7, Now: func() time.Time { return now }}, store
}

func TestDailyRangeCached(t *testing.T) {
	svc, store := newService(t)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	first, err := svc.DailyRange(context.Background(), from, to)
	require.NoError(t, err)
	second, err := svc.DailyRange(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1, store.dailyCalls)
	require.Len(t, second, len(first))
	require.Equal(t, pricing.Currency("MYR"), second[1].Currency)
}

func TestDailyRangeRejectsInvertedRange(t *testing.T) {
	svc, _ := newService(t)
	now := time.Now()
	_, err := svc.DailyRange(context.Background(), now, now.Add(-time.Hour))
	require.Error(t, err)
}

func TestTotalsGroupsByCurrency(t *testing.T) {
	store := &stubStore{}
	days, _ := store.DailyOrders(context.Background(), time.Time{}, time.Time{})
	totals := analytics.Totals(days)
	require.Len(t, totals, 2)
	require.Equal(t, pricing.Currency("IDR"), totals[0].Currency)
	require.Equal(t, int64(3), totals[0].Orders)
	require.Equal(t, 1_000_000.0, totals[0].Revenue)
	require.Equal(t, 200_000.0, totals[0].Profit)
	require.Equal(t, 10.0, totals[1].Profit)
}

func TestOverviewUsesDefaultRangeEndingTomorrow(t *testing.T) {
	svc, store := newService(t)
	ov, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), ov.To)
	require.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), ov.From)
	require.Len(t, ov.Statuses, 2)
	require.Len(t, ov.Totals, 2)

	_, err = svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, store.statusCalls)
}

func TestDailyHandlerDays(t *testing.T) {
	svc, store := newService(t)
	r := chi.NewRouter()
	r.Route("/analytics", (&analytics.Handler{Svc: svc}).Routes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/analytics/orders/daily?days=2", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), store.lastFrom)

	var body struct {
		Data   []analytics.Daily `json:"data"`
		Totals []analytics.Daily `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 3)
	require.Len(t, body.Totals, 2)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/analytics/orders/daily?from=2026-03-05&to=2026-03-01", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/analytics/orders/daily?from=yesterday&to=2026-03-01", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
