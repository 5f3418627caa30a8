package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// Invoice is a product checkout awaiting or holding payment.
type Invoice struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	FirstName   string                `gorm:"column:first_name;not null"`
	LastName    string                `gorm:"column:last_name;not null"`
	PhoneNumber string                `gorm:"column:phone_number;not null"`
	Street      string                `gorm:"column:street;not null"`
	Ward        string                `gorm:"column:ward;not null"`
	District    string                `gorm:"column:district;not null"`
	City        string                `gorm:"column:city;not null"`
	Amount      int64                 `gorm:"column:amount;not null"`
	ShippingFee int64                 `gorm:"column:shipping_fee;not null"`
	TotalAmount int64                 `gorm:"column:total_amount;not null"`
	Status      enums.InvoiceStatus   `gorm:"column:status;not null;default:'Pending'"`
	OrderCode   int64                 `gorm:"column:order_code;not null;uniqueIndex"`
	Provider    enums.PaymentProvider `gorm:"column:provider;not null"`
	CheckoutURL *string               `gorm:"column:checkout_url"`
	PaidAt      *time.Time            `gorm:"column:paid_at"`
	CancelledAt *time.Time            `gorm:"column:cancelled_at"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;references:ID"`
	User  *User         `gorm:"foreignKey:UserID;references:ID"`
}

// InvoiceItem snapshots a cart line at checkout. CartItemID is cleared when
// the line is later removed from the cart.
type InvoiceItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceID  uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null"`
	CartItemID *uuid.UUID      `gorm:"column:cart_item_id;type:uuid"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Category   *string         `gorm:"column:category"`

	Product *Product `gorm:"foreignKey:ProductID;references:ID"`
}
