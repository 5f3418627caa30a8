package webhooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hopefultail/hopeful-tail-backend/pkg/redis"
)

// DefaultScope namespaces payment webhook replay keys.
const DefaultScope = "payment-webhook"

// IdempotencyGuard remembers delivery keys in Redis so exact replays can be
// answered without touching the database.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		scope = DefaultScope
	}
	return &IdempotencyGuard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

// CheckAndMark reports true when key was already seen.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("delivery key is required")
	}
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, key), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete forgets key so the next delivery is processed again.
func (g *IdempotencyGuard) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("delivery key is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, key))
}
