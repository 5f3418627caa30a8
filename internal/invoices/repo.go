package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

// Repository persists invoices and their cart-item links.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the invoice and a snapshot row per cart line.
func (r *Repository) Create(ctx context.Context, invoice *models.Invoice, lines []models.CartItem) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Items", "User").Create(invoice).Error; err != nil {
		return err
	}
	items := make([]models.InvoiceItem, 0, len(lines))
	for _, line := range lines {
		item := models.InvoiceItem{
			ID:         uuid.New(),
			InvoiceID:  invoice.ID,
			CartItemID: &line.ID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			Category:   line.Category,
		}
		if line.Product != nil {
			item.UnitPrice = line.Product.Price
		}
		items = append(items, item)
	}
	return r.db.WithContext(ctx).Omit("Product").Create(&items).Error
}

// OwnedCartItems loads the lines among ids that belong to userID, with their products.
func (r *Repository) OwnedCartItems(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) SetCheckoutURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Update("checkout_url", url).Error
}

// List returns a page of invoices, restricted to owner when it is non-nil.
func (r *Repository) List(ctx context.Context, owner *uuid.UUID, params pagination.Params) ([]models.Invoice, int64, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Invoice{})
	if owner != nil {
		query = query.Where("user_id = ?", *owner)
	}
	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Invoice
	err := query.
		Preload("User").
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	return rows, total, err
}

func (r *Repository) FindByOrderCode(ctx context.Context, orderCode int64) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Items.Product").
		Where("order_code = ?", orderCode).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// MarkPaid moves a pending invoice to Paid and reports whether a row changed.
func (r *Repository) MarkPaid(ctx context.Context, orderCode int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("order_code = ? AND status = ?", orderCode, enums.InvoiceStatusPending).
		Updates(map[string]any{
			"status":     enums.InvoiceStatusPaid,
			"paid_at":    at,
			"updated_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkCancelled moves a pending invoice to Cancelled.
func (r *Repository) MarkCancelled(ctx context.Context, orderCode int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("order_code = ? AND status = ?", orderCode, enums.InvoiceStatusPending).
		Updates(map[string]any{
			"status":       enums.InvoiceStatusCancelled,
			"cancelled_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected > 0, res.Error
}

// FindStatus returns the owner and status for orderCode.
func (r *Repository) FindStatus(ctx context.Context, orderCode int64) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "status", "order_code", "total_amount").
		Where("order_code = ?", orderCode).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListPendingBefore returns up to limit PayOS invoices still pending at cutoff,
// oldest first, starting after the given position.
func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time, after pagination.Keyset, limit int) ([]models.Invoice, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND provider = ? AND created_at < ?", enums.InvoiceStatusPending, enums.PaymentProviderPayOS, cutoff)
	if !after.IsZero() {
		query = query.Where("(created_at > ? OR (created_at = ? AND id > ?))", after.CreatedAt, after.CreatedAt, after.ID)
	}
	var rows []models.Invoice
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
