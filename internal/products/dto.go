package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

const (
	MinSupportPercentage = 5
	MaxSupportPercentage = 10
)

// CreateInput describes a new catalog entry.
type CreateInput struct {
	Name              string
	Description       *string
	Price             decimal.Decimal
	OldPrice          *decimal.Decimal
	ImageID           uuid.UUID
	Category          string
	Quantity          int
	Code              string
	SupportPercentage int
	Keywords          []string
}

// UpdateInput is a partial update; nil fields are left alone.
type UpdateInput struct {
	Name              *string
	Description       *string
	Price             *decimal.Decimal
	OldPrice          *decimal.Decimal
	ImageID           *uuid.UUID
	Category          *string
	Quantity          *int
	Code              *string
	SupportPercentage *int
	Keywords          []string
}

// Filters narrow a product listing.
type Filters struct {
	Search   string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

type Image struct {
	ID  uuid.UUID `json:"id"`
	URL *string   `json:"url"`
}

// ProductView is the API shape of a product.
type ProductView struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Description       *string          `json:"description"`
	Price             decimal.Decimal  `json:"price"`
	OldPrice          *decimal.Decimal `json:"oldPrice"`
	Image             Image            `json:"image"`
	Category          string           `json:"category"`
	Quantity          int              `json:"quantity"`
	Code              string           `json:"code"`
	SupportPercentage int              `json:"supportPercentage"`
	Sold              int              `json:"sold"`
	Keywords          []string         `json:"keywords"`
	CreatedAt         time.Time        `json:"createdAt"`
}

type ListResult struct {
	Products []ProductView   `json:"products"`
	Meta     pagination.Meta `json:"pagination"`
}

func toView(p models.Product, urls map[uuid.UUID]string) ProductView {
	view := ProductView{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		OldPrice:          p.OldPrice,
		Image:             Image{ID: p.ImageID},
		Category:          p.Category,
		Quantity:          p.Quantity,
		Code:              p.Code,
		SupportPercentage: p.SupportPercentage,
		Sold:              p.Sold,
		Keywords:          []string(p.Keywords),
		CreatedAt:         p.CreatedAt,
	}
	if view.Keywords == nil {
		view.Keywords = []string{}
	}
	if url, ok := urls[p.ImageID]; ok {
		view.Image.URL = &url
	}
	return view
}
