package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
)

func TestIncrWithTTLAppliesExpiryWithoutResetting(t *testing.T) {
	ctx := context.Background()
	fake := newFakeCommands()
	client := &Client{cmd: fake}
	key := client.RateLimitKey("login:ip:1.2.3.4")

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, key, time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	require.Equal(t, time.Minute, fake.ttl[key])
	require.Len(t, fake.expireNX, 3)
}

func TestSetNXOnlyFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newFakeCommands()}
	key := client.IdempotencyKey("payment-webhook", "4821337:00")

	first, err := client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	require.True(t, first)

	second, err := client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	require.False(t, second)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	require.ErrorIs(t, err, redis.Nil)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("scope", "id"):    "ht:idempotency:scope:id",
		client.RateLimitKey("login:ip:1.2.3.4"): "ht:rate_limit:login:ip:1.2.3.4",
		client.AccessSessionKey("jti"):          "ht:session:access:jti",
		client.LockKey("cron-worker"):           "ht:lock:cron-worker",
		Key("webhook", "", " payos "):           "ht:webhook:payos",
	}
	for got, want := range cases {
		require.Equal(t, want, got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	require.Error(t, client.Ping(context.Background()))
	_, err := client.SetNX(context.Background(), "k", "v", time.Second)
	require.Error(t, err)
	require.NoError(t, client.Close())
}

func TestOptionsFillPoolSettings(t *testing.T) {
	opts, err := options(config.RedisConfig{
		URL:         "redis://localhost:6379/2",
		PoolSize:    7,
		DialTimeout: 3 * time.Second,
	})
	require.NoError(t, err)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 7, opts.PoolSize)
	require.Equal(t, 3*time.Second, opts.DialTimeout)

	_, err = options(config.RedisConfig{})
	require.Error(t, err)
}

type fakeCommands struct {
	data     map[string]string
	counters map[string]int64
	ttl      map[string]time.Duration
	expireNX []string
}

func newFakeCommands() *fakeCommands {
	return &fakeCommands{
		data:     map[string]string{},
		counters: map[string]int64{},
		ttl:      map[string]time.Duration{},
	}
}

func (f *fakeCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeCommands) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCommands) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeCommands) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeCommands) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expireNX = append(f.expireNX, key)
	if _, ok := f.ttl[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.ttl[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCommands) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
