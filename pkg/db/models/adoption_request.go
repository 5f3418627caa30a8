package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// AdoptionRequest is an applicant's request to adopt a pet.
type AdoptionRequest struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PetID       uuid.UUID            `gorm:"column:pet_id;type:uuid;not null"`
	UserID      uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	Name        string               `gorm:"column:name;not null"`
	Address     string               `gorm:"column:address;not null"`
	PhoneNumber string               `gorm:"column:phone_number;not null"`
	CCCD        string               `gorm:"column:cccd;not null"`
	Status      enums.AdoptionStatus `gorm:"column:status;not null;default:'pending'"`
	CountDay    int                  `gorm:"column:count_day;not null;default:0"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Pet *Pet `gorm:"foreignKey:PetID;references:ID"`
}
