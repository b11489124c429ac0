package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/pricing"
	"github.com/noah-isme/backend-jastip/internal/resilience"
)

// Daily sums non-canceled orders created on one day in one currency.
// Revenue is the line total charged to customers.
type Daily struct {
	Day      time.Time        `json:"day"`
	Currency pricing.Currency `json:"currency"`
	Orders   int64            `json:"orders"`
	Kg       int64            `json:"kg"`
	Revenue  float64          `json:"revenue"`
	Cost     float64          `json:"cost"`
	Profit   float64          `json:"profit"`
}

// StatusCount is the number of orders in one lifecycle status.
type StatusCount struct {
	Status string `json:"status"`
	Orders int64  `json:"orders"`
}

// Overview is the dashboard landing summary.
type Overview struct {
	From     time.Time     `json:"from"`
	To       time.Time     `json:"to"`
	Statuses []StatusCount `json:"statuses"`
	Totals   []Daily       `json:"totals"`
}

// Store reads order aggregates.
type Store interface {
	DailyOrders(ctx context.Context, from, to time.Time) ([]Daily, error)
	StatusCounts(ctx context.Context) ([]StatusCount, error)
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

func (s *pgStore) DailyOrders(ctx context.Context, from, to time.Time) ([]Daily, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("analytics: store not configured")
	}
	rows, err := s.pool.Query(ctx, `SELECT date_trunc('day', created_at), currency, count(*), COALESCE(sum(kg_ceil), 0),
COALESCE(sum(total_pembayaran + total_keuntungan), 0), COALESCE(sum(total_pembayaran), 0), COALESCE(sum(total_keuntungan), 0)
FROM orders
WHERE created_at >= $1 AND created_at < $2 AND status <> 'canceled'
GROUP BY 1, 2
ORDER BY 1, 2`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Daily{}
	for rows.Next() {
		var (
			d        Daily
			currency string
		)
		if err := rows.Scan(&d.Day, &currency, &d.Orders, &d.Kg, &d.Revenue, &d.Cost, &d.Profit); err != nil {
			return nil, err
		}
		d.Currency = pricing.Currency(currency).OrDefault()
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *pgStore) StatusCounts(ctx context.Context) ([]StatusCount, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("analytics: store not configured")
	}
	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM orders GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []StatusCount{}
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Orders); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Service provides cached order analytics.
type Service struct {
	Store        Store
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Breaker      *resilience.Breaker
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) defaultRange() int {
	if s.DefaultRange <= 0 {
		return 30
	}
	return s.DefaultRange
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// DailyRange returns per-day totals in [from, to).
func (s *Service) DailyRange(ctx context.Context, from, to time.Time) ([]Daily, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("analytics: service not configured")
	}
	if !from.Before(to) {
		return nil, common.BadRequest("from must be before to")
	}
	key := cacheKey("an", "daily", from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	var rows []Daily
	if s.load(ctx, key, &rows) {
		return rows, nil
	}
	rows, err := s.Store.DailyOrders(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// Overview summarises order statuses and per-currency totals over the
// default range ending now.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if s == nil || s.Store == nil {
		return Overview{}, errors.New("analytics: service not configured")
	}
	to := s.now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -s.defaultRange())
	key := cacheKey("an", "overview", from.Format(time.DateOnly))
	var ov Overview
	if s.load(ctx, key, &ov) {
		return ov, nil
	}
	statuses, err := s.Store.StatusCounts(ctx)
	if err != nil {
		return Overview{}, err
	}
	days, err := s.DailyRange(ctx, from, to)
	if err != nil {
		return Overview{}, err
	}
	ov = Overview{From: from, To: to, Statuses: statuses, Totals: Totals(days)}
	s.store(ctx, key, ov)
	return ov, nil
}

// Totals folds daily rows into one row per currency, keeping first-seen order.
func Totals(days []Daily) []Daily {
	out := []Daily{}
	index := map[pricing.Currency]int{}
	for _, d := range days {
		i, ok := index[d.Currency]
		if !ok {
			index[d.Currency] = len(out)
			out = append(out, Daily{Currency: d.Currency})
			i = len(out) - 1
		}
		out[i].Orders += d.Orders
		out[i].Kg += d.Kg
		out[i].Revenue += d.Revenue
		out[i].Cost += d.Cost
		out[i].Profit += d.Profit
	}
	return out
}

func (s *Service) load(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	var data []byte
	err := s.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = s.R.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil || data == nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.Breaker.Do(ctx, func(ctx context.Context) error {
		return s.R.Set(ctx, key, data, s.TTL).Err()
	})
}
