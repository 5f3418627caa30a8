package pagination

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
)

func TestParamsNormalize(t *testing.T) {
	p := Params{}.Normalize()
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Fatalf("unexpected defaults %+v", p)
	}
	if got := (Params{Page: 3, Limit: 500}).Normalize().Limit; got != MaxLimit {
		t.Fatalf("expected limit clamp to %d, got %d", MaxLimit, got)
	}
}

func TestParamsOffsetAndMeta(t *testing.T) {
	p := Params{Page: 3, Limit: 10}
	if p.Offset() != 20 {
		t.Fatalf("expected offset 20, got %d", p.Offset())
	}
	meta := p.MetaFor(21)
	if meta.TotalPages != 3 || meta.Total != 21 || meta.Page != 3 {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if empty := p.MetaFor(0); empty.TotalPages != 0 {
		t.Fatalf("expected zero pages, got %+v", empty)
	}
}

func TestFromQuery(t *testing.T) {
	p := FromQuery(url.Values{"page": {"2"}, "limit": {"abc"}})
	if p.Page != 2 || p.Limit != DefaultLimit {
		t.Fatalf("unexpected params %+v", p)
	}
}

func TestKeysetZero(t *testing.T) {
	if !(Keyset{}).IsZero() {
		t.Fatal("empty keyset should start from the beginning")
	}
	if (Keyset{ID: uuid.New()}).IsZero() {
		t.Fatal("keyset with an id is a position")
	}
}
