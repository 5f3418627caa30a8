package webhooks

import (
	"context"
	"testing"
	"time"
)

type fakeStore struct {
	data map[string]time.Duration
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) { return "", nil }

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func TestIdempotencyGuard(t *testing.T) {
	store := &fakeStore{data: map[string]time.Duration{}}
	guard, err := NewIdempotencyGuard(store, time.Hour, "")
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "payos:1:00")
	if err != nil || seen {
		t.Fatalf("first delivery: seen=%v err=%v", seen, err)
	}
	if ttl := store.data["idem:payment-webhook:payos:1:00"]; ttl != time.Hour {
		t.Fatalf("expected scoped key with 1h ttl, got %v", store.data)
	}
	if seen, _ := guard.CheckAndMark(ctx, "payos:1:00"); !seen {
		t.Fatal("expected replay to be detected")
	}
	if err := guard.Delete(ctx, "payos:1:00"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if seen, _ := guard.CheckAndMark(ctx, "payos:1:00"); seen {
		t.Fatal("expected key to be released")
	}
	if _, err := guard.CheckAndMark(ctx, ""); err == nil {
		t.Fatal("expected empty key to fail")
	}
}

func TestNewIdempotencyGuardValidation(t *testing.T) {
	if _, err := NewIdempotencyGuard(nil, time.Hour, "x"); err == nil {
		t.Fatal("expected nil store to fail")
	}
	if _, err := NewIdempotencyGuard(&fakeStore{}, -time.Second, "x"); err == nil {
		t.Fatal("expected negative ttl to fail")
	}
}
