package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
)

// Repository persists cart lines.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Upsert adds quantity to the user's line for the product, creating it when absent.
func (r *Repository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int, category string) (*models.CartItem, error) {
	row := &models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Category:  &category,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity": gorm.Expr("cart_items.quantity + ?", quantity),
			"category": category,
		}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserAndProduct(ctx, userID, productID)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Preload("Product").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByUser returns the user's lines newest first, optionally narrowed to a category.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, category string) ([]models.CartItem, error) {
	query := r.db.WithContext(ctx).Preload("Product").Where("user_id = ?", userID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var items []models.CartItem
	err := query.Order("added_at DESC").Find(&items).Error
	return items, err
}

func (r *Repository) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartItem{})
	return res.RowsAffected > 0, res.Error
}
