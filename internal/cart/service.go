package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// AddInput puts quantity units of a product in the user's cart.
type AddInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// ItemView is one priced cart line.
type ItemView struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// View is a user's cart with its running total.
type View struct {
	Items          []ItemView      `json:"items"`
	TotalCartValue decimal.Decimal `json:"totalCartValue"`
}

// Service manages shopping cart lines.
type Service interface {
	Add(ctx context.Context, input AddInput) (*ItemView, error)
	List(ctx context.Context, userID uuid.UUID, category string) (*View, error)
	Get(ctx context.Context, userID, itemID uuid.UUID) (*ItemView, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemView, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
}

type service struct {
	repo     *Repository
	products productLoader
}

// NewService builds a cart service over the given repositories.
func NewService(repo *Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Add(ctx context.Context, input AddInput) (*ItemView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	merged := input.Quantity
	existing, err := s.repo.FindByUserAndProduct(ctx, input.UserID, input.ProductID)
	switch {
	case err == nil:
		merged += existing.Quantity
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	if err := checkStock(product, merged); err != nil {
		return nil, err
	}

	item, err := s.repo.Upsert(ctx, input.UserID, input.ProductID, input.Quantity, product.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}
	view := toItemView(*item)
	return &view, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, category string) (*View, error) {
	items, err := s.repo.ListByUser(ctx, userID, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}
	out := &View{Items: make([]ItemView, 0, len(items)), TotalCartValue: decimal.Zero}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		view := toItemView(item)
		out.TotalCartValue = out.TotalCartValue.Add(view.Subtotal)
		out.Items = append(out.Items, view)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, itemID uuid.UUID) (*ItemView, error) {
	item, err := s.owned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	view := toItemView(*item)
	return &view, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemView, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	item, err := s.owned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkStock(product, quantity); err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, itemID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	item.Quantity = quantity
	item.Product = product
	view := toItemView(*item)
	return &view, nil
}

func (s *service) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, itemID); err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, itemID); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "cart item is still referenced")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	return nil
}

// owned hides other users' lines behind NotFound.
func (s *service) owned(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func checkStock(product *models.Product, quantity int) error {
	if quantity > product.Quantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available stock").
			WithDetails(map[string]any{"requested": quantity, "available": product.Quantity})
	}
	return nil
}

func toItemView(item models.CartItem) ItemView {
	view := ItemView{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Subtotal:  decimal.Zero,
	}
	if item.Category != nil {
		view.Category = *item.Category
	}
	if p := item.Product; p != nil {
		view.Name = p.Name
		view.Price = p.Price
		view.Stock = p.Quantity
		view.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if view.Category == "" {
			view.Category = p.Category
		}
	}
	return view
}
