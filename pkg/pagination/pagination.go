package pagination

import (
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 15
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Meta describes the page that was returned.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps page to >= 1 and the limit to the allowed range.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

// Offset is the number of rows to skip for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// MetaFor builds response metadata for a query that matched total rows.
func (p Params) MetaFor(total int64) Meta {
	n := p.Normalize()
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return Meta{Page: n.Page, Limit: n.Limit, Total: total, TotalPages: pages}
}

// FromQuery reads page and limit from URL query values, ignoring junk.
func FromQuery(values url.Values) Params {
	page, _ := strconv.Atoi(values.Get("page"))
	limit, _ := strconv.Atoi(values.Get("limit"))
	return Params{Page: page, Limit: limit}.Normalize()
}

// Keyset marks the last row seen by a scan ordered by (created_at, id). The
// zero value starts from the beginning.
type Keyset struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

func (k Keyset) IsZero() bool {
	return k.ID == uuid.Nil
}
