package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LockName is the shared key every worker replica contends for.
const LockName = "cron-worker"

const defaultLockTTL = 30 * time.Minute

// Lock hands out at most one Lease at a time across all replicas.
// TryLock returns a nil Lease when another holder is active.
type Lock interface {
	TryLock(ctx context.Context) (Lease, error)
}

type Lease interface {
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock stores a per-lease token under key for ttl, so a crashed worker
// blocks the others for at most ttl.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	host  string
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errors.New("redis client required for lock")
	case key == "":
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	host, _ := os.Hostname()
	return &RedisLock{store: store, key: key, ttl: ttl, host: host}, nil
}

func (l *RedisLock) TryLock(ctx context.Context) (Lease, error) {
	token := fmt.Sprintf("%s/%s", l.host, uuid.NewString())
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if !ok {
		return nil, nil
	}
	return &redisLease{lock: l, token: token}, nil
}

type redisLease struct {
	lock  *RedisLock
	token string
}

// Release drops the key unless it expired and was taken by someone else.
func (r *redisLease) Release(ctx context.Context) error {
	current, err := r.lock.store.Get(ctx, r.lock.key)
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("read lock owner: %w", err)
	case current != r.token:
		return nil
	}
	if err := r.lock.store.Del(ctx, r.lock.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
