package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// CartPet reserves a pet for a user while their adoption request is decided.
type CartPet struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	PetID     uuid.UUID            `gorm:"column:pet_id;type:uuid;not null"`
	Quantity  int                  `gorm:"column:quantity;not null;default:1"`
	Status    enums.AdoptionStatus `gorm:"column:status;not null;default:'pending'"`
	AddedAt   time.Time            `gorm:"column:added_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
