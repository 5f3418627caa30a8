package cartpets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// Repository persists pet reservations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Reserve creates the (user, pet) row or adds quantity to the existing one,
// leaving its status untouched.
func (r *Repository) Reserve(ctx context.Context, userID, petID uuid.UUID, quantity int, status enums.AdoptionStatus) (*models.CartPet, error) {
	row := &models.CartPet{
		ID:       uuid.New(),
		UserID:   userID,
		PetID:    petID,
		Quantity: quantity,
		Status:   status,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "pet_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_pets.quantity + ?", quantity),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserAndPet(ctx, userID, petID)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CartPet, error) {
	var row models.CartPet
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindByUserAndPet(ctx context.Context, userID, petID uuid.UUID) (*models.CartPet, error) {
	var row models.CartPet
	if err := r.db.WithContext(ctx).Where("user_id = ? AND pet_id = ?", userID, petID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartPet, error) {
	var rows []models.CartPet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("added_at DESC").Find(&rows).Error
	return rows, err
}

// SetStatus updates the reservation for (user, pet) and reports whether it existed.
func (r *Repository) SetStatus(ctx context.Context, userID, petID uuid.UUID, status enums.AdoptionStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartPet{}).
		Where("user_id = ? AND pet_id = ?", userID, petID).
		Update("status", status)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) SetStatusByID(ctx context.Context, id uuid.UUID, status enums.AdoptionStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartPet{}).
		Where("id = ?", id).
		Update("status", status)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartPet{})
	return res.RowsAffected > 0, res.Error
}

// Track creates or resets the (user, pet) reservation to status without
// changing an existing quantity.
func (r *Repository) Track(ctx context.Context, userID, petID uuid.UUID, status enums.AdoptionStatus) error {
	row := &models.CartPet{
		ID:       uuid.New(),
		UserID:   userID,
		PetID:    petID,
		Quantity: 1,
		Status:   status,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "pet_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"status":     status,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(row).Error
}
