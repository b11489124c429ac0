package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/pricing"
	"github.com/noah-isme/backend-jastip/internal/resilience"
	"github.com/noah-isme/backend-jastip/internal/settings"
)

type fakeStore struct {
	row   *settings.Pricing
	reads int
}

func (f *fakeStore) GetPricing(context.Context) (settings.Pricing, error) {
	f.reads++
	if f.row == nil {
		return settings.Pricing{}, pgx.ErrNoRows
	}
	return *f.row, nil
}

func (f *fakeStore) SavePricing(_ context.Context, p settings.Pricing) (settings.Pricing, error) {
	p.UpdatedAt = time.Now()
	f.row = &p
	return p, nil
}

func newService(t *testing.T) (*settings.Service, *fakeStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := &fakeStore{}
	svc := &settings.Service{
		Store:    store,
		Cache:    settings.NewCache(rdb, time.Minute),
		Defaults: settings.Pricing{UnitPricePerKg: 100_000},
	}
	return svc, store
}

func TestCurrentFallsBackToDefaultsAndCaches(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	first, err := svc.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(100_000), first.UnitPricePerKg)
	require.Equal(t, pricing.DefaultCurrency, first.DefaultCurrency)

	price, err := svc.UnitPricePerKg(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(100_000), price)
	require.Equal(t, 1, store.reads)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Current(ctx)
	require.NoError(t, err)

	saved, err := svc.Update(ctx, settings.UpdateInput{UnitPricePerKg: 120_000, DefaultCurrency: "myr"})
	require.NoError(t, err)
	require.Equal(t, pricing.Currency("MYR"), saved.DefaultCurrency)

	price, err := svc.UnitPricePerKg(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(120_000), price)
	require.Equal(t, 2, store.reads)
}

func TestUpdateRejectsInvalidInput(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, settings.UpdateInput{UnitPricePerKg: -1})
	require.True(t, common.IsAppError(err))

	_, err = svc.Update(ctx, settings.UpdateInput{UnitPricePerKg: 1, DefaultCurrency: "ZZZ"})
	require.True(t, common.IsAppError(err))

	_, err = svc.Update(ctx, settings.UpdateInput{UnitPricePerKg: pricing.MaxUnitPricePerKg + 1})
	require.True(t, common.IsAppError(err))
}

func TestCurrentWorksWithoutCache(t *testing.T) {
	store := &fakeStore{row: &settings.Pricing{UnitPricePerKg: 90_000, DefaultCurrency: "IDR"}}
	svc := &settings.Service{Store: store}
	p, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(90_000), p.UnitPricePerKg)
}

func TestCurrentBypassesCacheWhenBreakerOpens(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	breaker := resilience.NewBreaker(resilience.Config{MinRequests: 1, OpenFor: time.Minute})
	store := &fakeStore{row: &settings.Pricing{UnitPricePerKg: 70_000, DefaultCurrency: "IDR"}}
	svc := &settings.Service{Store: store, Cache: settings.NewCache(rdb, time.Minute).WithBreaker(breaker)}

	for i := 0; i < 3; i++ {
		price, err := svc.UnitPricePerKg(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(70_000), price)
	}
	require.Equal(t, resilience.Open, breaker.State())
	require.Equal(t, 3, store.reads)
}
