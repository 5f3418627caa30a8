package pets

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

// Repository persists pets. Soft-deleted rows are invisible to every read.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, pet *models.Pet) error {
	if pet.ID == uuid.Nil {
		pet.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(pet).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	if err := r.db.WithContext(ctx).Where("id = ? AND deleted = ?", id, false).First(&pet).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Pet{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// SetStatus updates the adoption status of a pet, deleted or not.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.PetStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Pet{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Update(ctx, id, map[string]any{"deleted": true})
}

func (r *Repository) List(ctx context.Context, filters Filters, params pagination.Params) ([]models.Pet, int64, error) {
	params = params.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Pet{}).Where("deleted = ?", false)
	if s := strings.TrimSpace(filters.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if filters.Species != "" {
		query = query.Where("species = ?", filters.Species)
	}
	if filters.CoatColor != "" {
		query = query.Where("coat_color = ?", filters.CoatColor)
	}
	if filters.Sex != "" {
		query = query.Where("sex = ?", filters.Sex)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Pet
	err := query.Order("created_at DESC").Limit(params.Limit).Offset(params.Offset()).Find(&rows).Error
	return rows, total, err
}
