package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// Pet is an animal listed for adoption.
type Pet struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string                `gorm:"column:name;not null"`
	Description  string                `gorm:"column:description;not null"`
	Age          int                   `gorm:"column:age;not null"`
	Species      string                `gorm:"column:species;not null"`
	CoatColor    string                `gorm:"column:coat_color;not null"`
	Sex          enums.PetSex          `gorm:"column:sex;not null"`
	Breed        string                `gorm:"column:breed;not null"`
	Vaccinated   bool                  `gorm:"column:vaccinated;not null"`
	HealthStatus enums.PetHealthStatus `gorm:"column:health_status;not null"`
	ImageID      uuid.UUID             `gorm:"column:image_id;type:uuid;not null"`
	Quantity     int                   `gorm:"column:quantity;not null;default:1"`
	Location     string                `gorm:"column:location;not null"`
	Keywords     pq.StringArray        `gorm:"column:keywords;type:text[]"`
	Status       enums.PetStatus       `gorm:"column:status;not null;default:'available'"`
	Deleted      bool                  `gorm:"column:deleted;not null;default:false"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
