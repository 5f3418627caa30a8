package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// Fund is a donation awaiting or holding payment.
type Fund struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Amount       int64                 `gorm:"column:amount;not null"`
	DateReceived time.Time             `gorm:"column:date_received;not null"`
	Status       enums.FundStatus      `gorm:"column:status;not null;default:'pending'"`
	OrderCode    int64                 `gorm:"column:order_code;not null;uniqueIndex"`
	Provider     enums.PaymentProvider `gorm:"column:provider;not null"`
	CheckoutURL  *string               `gorm:"column:checkout_url"`
	ApprovedAt   *time.Time            `gorm:"column:approved_at"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID;references:ID"`
}
