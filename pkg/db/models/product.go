package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a shop catalog entry.
type Product struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string           `gorm:"column:name;not null"`
	Description       *string          `gorm:"column:description"`
	Price             decimal.Decimal  `gorm:"column:price;type:numeric(14,2);not null"`
	OldPrice          *decimal.Decimal `gorm:"column:old_price;type:numeric(14,2)"`
	ImageID           uuid.UUID        `gorm:"column:image_id;type:uuid;not null"`
	Category          string           `gorm:"column:category;not null"`
	Quantity          int              `gorm:"column:quantity;not null"`
	Code              string           `gorm:"column:code;not null"`
	SupportPercentage int              `gorm:"column:support_percentage;not null;default:5"`
	Sold              int              `gorm:"column:sold;not null;default:0"`
	Keywords          pq.StringArray   `gorm:"column:keywords;type:text[]"`
	Deleted           bool             `gorm:"column:deleted;not null;default:false"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
