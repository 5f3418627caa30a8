package adoptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// resolvedStatuses are the statuses the count-day sweep ages out.
var resolvedStatuses = []enums.AdoptionStatus{enums.AdoptionStatusApproved, enums.AdoptionStatusRejected}

// Repository persists adoption requests.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, req *models.AdoptionRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("Pet").Create(req).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	if err := r.db.WithContext(ctx).Preload("Pet").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ExistsWithStatus reports whether (pet, user) already has a request in status.
func (r *Repository) ExistsWithStatus(ctx context.Context, petID, userID uuid.UUID, status enums.AdoptionStatus) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("pet_id = ? AND user_id = ? AND status = ?", petID, userID, status).
		Count(&count).Error
	return count > 0, err
}

// List returns requests newest first, optionally scoped to owner and status.
func (r *Repository) List(ctx context.Context, owner *uuid.UUID, status *enums.AdoptionStatus) ([]models.AdoptionRequest, error) {
	query := r.db.WithContext(ctx).Preload("Pet")
	if owner != nil {
		query = query.Where("user_id = ?", *owner)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.AdoptionRequest
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.AdoptionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ResolvedIDs snapshots the ids the sweep will visit.
func (r *Repository) ResolvedIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("status IN ?", resolvedStatuses).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// IncrementCountDay bumps the counter of a still-resolved request and
// returns the new value. ok is false when the row vanished or reopened.
func (r *Repository) IncrementCountDay(ctx context.Context, id uuid.UUID) (count int, ok bool, err error) {
	res := r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("id = ? AND status IN ?", id, resolvedStatuses).
		UpdateColumn("count_day", gorm.Expr("count_day + 1"))
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, false, nil
	}
	var row models.AdoptionRequest
	if err := r.db.WithContext(ctx).Select("count_day").First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	return row.CountDay, true, nil
}

// DeleteExpired removes the request once its counter reached threshold.
func (r *Repository) DeleteExpired(ctx context.Context, id uuid.UUID, threshold int) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND count_day >= ? AND status IN ?", id, threshold, resolvedStatuses).
		Delete(&models.AdoptionRequest{})
	return res.RowsAffected > 0, res.Error
}
