package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

// MediaLookup resolves image references.
type MediaLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	URLsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// Service manages the shop catalog.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*ProductView, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*ProductView, error)
	List(ctx context.Context, filters Filters, params pagination.Params) (*ListResult, error)
}

type service struct {
	repo  *Repository
	media MediaLookup
}

func NewService(repo *Repository, media MediaLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if media == nil {
		return nil, fmt.Errorf("media lookup required")
	}
	return &service{repo: repo, media: media}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProductView, error) {
	if input.SupportPercentage == 0 {
		input.SupportPercentage = MinSupportPercentage
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if err := s.requireMedia(ctx, input.ImageID); err != nil {
		return nil, err
	}
	product := &models.Product{
		ID:                uuid.New(),
		Name:              strings.TrimSpace(input.Name),
		Description:       input.Description,
		Price:             input.Price,
		OldPrice:          input.OldPrice,
		ImageID:           input.ImageID,
		Category:          strings.TrimSpace(input.Category),
		Quantity:          input.Quantity,
		Code:              strings.TrimSpace(input.Code),
		SupportPercentage: input.SupportPercentage,
		Keywords:          pq.StringArray(normalizeKeywords(input.Keywords)),
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return s.view(ctx, product)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductView, error) {
	updates, err := s.updatesFor(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return s.Get(ctx, id)
	}
	found, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductView, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return s.view(ctx, product)
}

func (s *service) List(ctx context.Context, filters Filters, params pagination.Params) (*ListResult, error) {
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minPrice must not exceed maxPrice")
	}
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ImageID)
	}
	urls, err := s.media.URLsByID(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve product images")
	}
	out := &ListResult{Products: make([]ProductView, 0, len(rows)), Meta: params.MetaFor(total)}
	for _, row := range rows {
		out.Products = append(out.Products, toView(row, urls))
	}
	return out, nil
}

func (s *service) view(ctx context.Context, product *models.Product) (*ProductView, error) {
	urls, err := s.media.URLsByID(ctx, []uuid.UUID{product.ImageID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve product image")
	}
	view := toView(*product, urls)
	return &view, nil
}

func (s *service) requireMedia(ctx context.Context, id uuid.UUID) error {
	ok, err := s.media.Exists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check media")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
	}
	return nil
}

func (s *service) updatesFor(ctx context.Context, in UpdateInput) (map[string]any, error) {
	updates := map[string]any{}
	details := map[string]string{}
	setString := func(column string, v *string) {
		if v == nil {
			return
		}
		if strings.TrimSpace(*v) == "" {
			details[column] = "must not be empty"
			return
		}
		updates[column] = strings.TrimSpace(*v)
	}
	setString("name", in.Name)
	setString("category", in.Category)
	setString("code", in.Code)
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			details["price"] = "must not be negative"
		} else {
			updates["price"] = *in.Price
		}
	}
	if in.OldPrice != nil {
		if in.OldPrice.IsNegative() {
			details["oldPrice"] = "must not be negative"
		} else {
			updates["old_price"] = *in.OldPrice
		}
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			details["quantity"] = "must be at least 0"
		} else {
			updates["quantity"] = *in.Quantity
		}
	}
	if in.SupportPercentage != nil {
		if !validSupport(*in.SupportPercentage) {
			details["supportPercentage"] = supportMessage
		} else {
			updates["support_percentage"] = *in.SupportPercentage
		}
	}
	if in.Keywords != nil {
		updates["keywords"] = pq.StringArray(normalizeKeywords(in.Keywords))
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	if in.ImageID != nil {
		if err := s.requireMedia(ctx, *in.ImageID); err != nil {
			return nil, err
		}
		updates["image_id"] = *in.ImageID
	}
	return updates, nil
}

var supportMessage = fmt.Sprintf("must be between %d and %d", MinSupportPercentage, MaxSupportPercentage)

func validSupport(v int) bool {
	return v >= MinSupportPercentage && v <= MaxSupportPercentage
}

func validateCreate(in CreateInput) error {
	details := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		details["name"] = "is required"
	}
	if strings.TrimSpace(in.Category) == "" {
		details["category"] = "is required"
	}
	if strings.TrimSpace(in.Code) == "" {
		details["code"] = "is required"
	}
	if !in.Price.GreaterThan(decimal.Zero) {
		details["price"] = "must be greater than 0"
	}
	if in.OldPrice != nil && in.OldPrice.IsNegative() {
		details["oldPrice"] = "must not be negative"
	}
	if in.Quantity < 0 {
		details["quantity"] = "must be at least 0"
	}
	if !validSupport(in.SupportPercentage) {
		details["supportPercentage"] = supportMessage
	}
	if in.ImageID == uuid.Nil {
		details["imageId"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}
