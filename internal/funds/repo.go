package funds

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

// Repository persists donations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, fund *models.Fund) error {
	if fund.ID == uuid.Nil {
		fund.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("User").Create(fund).Error
}

func (r *Repository) SetCheckoutURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.db.WithContext(ctx).
		Model(&models.Fund{}).
		Where("id = ?", id).
		Update("checkout_url", url).Error
}

// List returns funds newest first, restricted to owner when it is non-nil.
func (r *Repository) List(ctx context.Context, owner *uuid.UUID) ([]models.Fund, error) {
	query := r.db.WithContext(ctx).Preload("User")
	if owner != nil {
		query = query.Where("user_id = ?", *owner)
	}
	var rows []models.Fund
	err := query.Order("date_received DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByOrderCode(ctx context.Context, orderCode int64) (*models.Fund, error) {
	var fund models.Fund
	if err := r.db.WithContext(ctx).Where("order_code = ?", orderCode).First(&fund).Error; err != nil {
		return nil, err
	}
	return &fund, nil
}

// MarkApproved moves a pending fund to approved and reports whether a row changed.
func (r *Repository) MarkApproved(ctx context.Context, orderCode int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Fund{}).
		Where("order_code = ? AND status = ?", orderCode, enums.FundStatusPending).
		Updates(map[string]any{
			"status":      enums.FundStatusApproved,
			"approved_at": at,
			"updated_at":  at,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkRejected closes a pending fund whose payment link lapsed.
func (r *Repository) MarkRejected(ctx context.Context, orderCode int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Fund{}).
		Where("order_code = ? AND status = ?", orderCode, enums.FundStatusPending).
		Updates(map[string]any{
			"status":     enums.FundStatusRejected,
			"updated_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

// ListPendingBefore returns up to limit PayOS funds still pending at cutoff,
// oldest first, starting after the given position.
func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time, after pagination.Keyset, limit int) ([]models.Fund, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND provider = ? AND created_at < ?", enums.FundStatusPending, enums.PaymentProviderPayOS, cutoff)
	if !after.IsZero() {
		query = query.Where("(created_at > ? OR (created_at = ? AND id > ?))", after.CreatedAt, after.CreatedAt, after.ID)
	}
	var rows []models.Fund
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
