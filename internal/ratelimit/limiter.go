package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Result describes the limiter state after counting one request.
type Result struct {
	Limit     int64
	Remaining int64
	Reset     time.Time
	Reached   bool
}

// Limiter counts a request against key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Ulule adapts a ulule/limiter instance to Limiter.
type Ulule struct {
	Instance *limiter.Limiter
}

// NewRedis builds a limiter for a rate such as "5-M" stored in Redis under prefix.
func NewRedis(client *redis.Client, prefix, formatted string) (*Ulule, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("limiter store: %w", err)
	}
	return NewUlule(store, rate), nil
}

// NewUlule builds a limiter over any ulule store.
func NewUlule(store limiter.Store, rate limiter.Rate) *Ulule {
	return &Ulule{Instance: limiter.New(store, rate)}
}

// Allow implements Limiter.
func (u *Ulule) Allow(ctx context.Context, key string) (Result, error) {
	lctx, err := u.Instance.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Limit:     lctx.Limit,
		Remaining: lctx.Remaining,
		Reset:     time.Unix(lctx.Reset, 0),
		Reached:   lctx.Reached,
	}, nil
}
