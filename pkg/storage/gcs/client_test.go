package gcs

import (
	"context"
	"strings"
	"testing"

	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
)

func TestPublicURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		base, bucket, object, want string
	}{
		{"", "pets", "media/01J.png", "https://storage.googleapis.com/pets/media/01J.png"},
		{"https://cdn.example.com/", "pets", "media/a b.jpg", "https://cdn.example.com/pets/media/a%20b.jpg"},
	}
	for _, tc := range cases {
		if got := PublicURL(tc.base, tc.bucket, tc.object); got != tc.want {
			t.Fatalf("PublicURL(%q,%q,%q) = %q, want %q", tc.base, tc.bucket, tc.object, got, tc.want)
		}
	}
}

func TestNewClientRequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := NewClient(context.Background(), config.GCSConfig{}, config.GCPConfig{}, nil)
	if err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("expected bucket error, got %v", err)
	}
}

func TestNilClientGuards(t *testing.T) {
	t.Parallel()

	var c *Client
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping on nil client to fail")
	}
	if _, err := c.Upload(context.Background(), "media/x.png", "image/png", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload on nil client to fail")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}
