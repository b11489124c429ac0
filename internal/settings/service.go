package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/pricing"
)

const cacheKey = "settings:pricing"

// Pricing is the global pricing configuration shared by every order form.
type Pricing struct {
	UnitPricePerKg  int64            `json:"unitPricePerKg"`
	DefaultCurrency pricing.Currency `json:"defaultCurrency"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Store persists the singleton settings row.
type Store interface {
	GetPricing(ctx context.Context) (Pricing, error)
	SavePricing(ctx context.Context, p Pricing) (Pricing, error)
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

func (s *pgStore) GetPricing(ctx context.Context) (Pricing, error) {
	var (
		p        Pricing
		currency string
	)
	err := s.pool.QueryRow(ctx, `SELECT unit_price_per_kg, default_currency, updated_at FROM app_settings WHERE id = 1`).
		Scan(&p.UnitPricePerKg, &currency, &p.UpdatedAt)
	if err != nil {
		return Pricing{}, err
	}
	p.DefaultCurrency = pricing.Currency(currency).OrDefault()
	return p, nil
}

func (s *pgStore) SavePricing(ctx context.Context, p Pricing) (Pricing, error) {
	var (
		out      Pricing
		currency string
	)
	err := s.pool.QueryRow(ctx, `INSERT INTO app_settings (id, unit_price_per_kg, default_currency, updated_at)
VALUES (1, $1, $2, now())
ON CONFLICT (id) DO UPDATE SET unit_price_per_kg = EXCLUDED.unit_price_per_kg,
  default_currency = EXCLUDED.default_currency, updated_at = now()
RETURNING unit_price_per_kg, default_currency, updated_at`, p.UnitPricePerKg, string(p.DefaultCurrency)).
		Scan(&out.UnitPricePerKg, &currency, &out.UpdatedAt)
	if err != nil {
		return Pricing{}, err
	}
	out.DefaultCurrency = pricing.Currency(currency).OrDefault()
	return out, nil
}

// Service provides cached access to the pricing settings.
type Service struct {
	Store    Store
	Cache    *Cache
	Defaults Pricing
}

// Current returns the pricing settings, falling back to Defaults when the row
// has never been written. Cache failures are logged and bypassed.
func (s *Service) Current(ctx context.Context) (Pricing, error) {
	if s == nil || s.Store == nil {
		return Pricing{}, errors.New("settings: store not configured")
	}
	var cached Pricing
	if ok, err := s.Cache.GetJSON(ctx, cacheKey, &cached); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("read settings cache")
	} else if ok {
		return cached, nil
	}
	p, err := s.Store.GetPricing(ctx)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return Pricing{}, fmt.Errorf("load pricing settings: %w", err)
		}
		p = s.Defaults
		p.DefaultCurrency = p.DefaultCurrency.OrDefault()
	}
	if err := s.Cache.SetJSON(ctx, cacheKey, p); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("write settings cache")
	}
	return p, nil
}

// UnitPricePerKg returns the current global rate.
func (s *Service) UnitPricePerKg(ctx context.Context) (int64, error) {
	p, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	return p.UnitPricePerKg, nil
}

// UpdateInput carries a settings change request.
type UpdateInput struct {
	UnitPricePerKg  int64  `json:"unitPricePerKg" validate:"gte=0,lte=1000000000000"`
	DefaultCurrency string `json:"defaultCurrency"`
}

// Update stores new settings and invalidates the cache. Orders already saved
// keep their own unit price snapshot.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Pricing, error) {
	if s == nil || s.Store == nil {
		return Pricing{}, errors.New("settings: store not configured")
	}
	if in.UnitPricePerKg < 0 {
		return Pricing{}, common.BadRequest("unitPricePerKg must not be negative")
	}
	if in.UnitPricePerKg > pricing.MaxUnitPricePerKg {
		return Pricing{}, common.BadRequest("unitPricePerKg is too large")
	}
	currency, ok := pricing.ParseCurrency(in.DefaultCurrency)
	if !ok {
		return Pricing{}, common.BadRequest("unsupported currency " + string(currency))
	}
	saved, err := s.Store.SavePricing(ctx, Pricing{UnitPricePerKg: in.UnitPricePerKg, DefaultCurrency: currency})
	if err != nil {
		return Pricing{}, fmt.Errorf("save pricing settings: %w", err)
	}
	if err := s.Cache.Delete(ctx, cacheKey); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("invalidate settings cache")
	}
	return saved, nil
}
