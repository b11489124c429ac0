package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-jastip/internal/config"
)

func TestNewRedisPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{RedisURL: "redis://" + mr.Addr() + "/0"}

	rdb, err := NewRedis(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	require.Equal(t, "v", got)
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), &config.Config{RedisURL: "::not a url"}, zerolog.Nop())
	require.Error(t, err)
}

func TestLockerUsesConfiguredTimings(t *testing.T) {
	d := &Dependencies{Config: &config.Config{LockTTL: 3 * time.Second, LockRetryBackoff: 20 * time.Millisecond}}
	l := d.Locker()
	require.Equal(t, 3*time.Second, l.TTL)
	require.Equal(t, 20*time.Millisecond, l.RetryBackoff)
}

func TestCloseRunsInReverseAndJoinsErrors(t *testing.T) {
	var order []int
	boom := errors.New("boom")
	d := &Dependencies{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return boom },
	}}
	err := d.Close()
	require.ErrorIs(t, err, boom)
	require.Equal(t, []int{2, 1}, order)
	require.NoError(t, d.Close())
}

func TestInitObservabilityWithoutTracing(t *testing.T) {
	shutdown := InitObservability(context.Background(), &config.Config{}, "test", zerolog.Nop())
	shutdown(context.Background())
}
