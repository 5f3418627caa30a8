package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a product line in a user's shopping cart.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int       `gorm:"column:quantity;not null"`
	Category  *string   `gorm:"column:category"`
	AddedAt   time.Time `gorm:"column:added_at;autoCreateTime"`

	Product *Product `gorm:"foreignKey:ProductID;references:ID"`
}
