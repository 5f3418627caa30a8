package invoices

import (
	"time"

	"github.com/google/uuid"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	"github.com/hopefultail/hopeful-tail-backend/pkg/pagination"
)

// CreateInput carries a checkout for the caller's cart items.
type CreateInput struct {
	UserID      uuid.UUID
	FirstName   string
	LastName    string
	PhoneNumber string
	Street      string
	Ward        string
	District    string
	City        string
	Amount      int64
	ShippingFee int64
	TotalAmount int64
	CartItemIDs []uuid.UUID
}

// CheckoutResult is returned once a payment link exists.
type CheckoutResult struct {
	CheckoutURL string `json:"checkoutUrl"`
	OrderCode   int64  `json:"orderCode"`
}

// InvoiceItemView is one cart line as it was at checkout. CartItemID is nil
// once the line has left the cart.
type InvoiceItemView struct {
	CartItemID  *uuid.UUID `json:"cartItemId"`
	ProductID   uuid.UUID  `json:"productId"`
	ProductName string     `json:"productName,omitempty"`
	Quantity    int        `json:"quantity"`
	Category    *string    `json:"category,omitempty"`
	Price       string     `json:"price"`
	ImageID     uuid.UUID  `json:"imageId,omitempty"`
}

// InvoiceView is the API shape of an invoice.
type InvoiceView struct {
	ID          uuid.UUID             `json:"id"`
	UserID      uuid.UUID             `json:"userId"`
	Username    string                `json:"username,omitempty"`
	FirstName   string                `json:"firstName"`
	LastName    string                `json:"lastName"`
	PhoneNumber string                `json:"phoneNumber"`
	Street      string                `json:"street"`
	Ward        string                `json:"ward"`
	District    string                `json:"district"`
	City        string                `json:"city"`
	Amount      int64                 `json:"amount"`
	ShippingFee int64                 `json:"shippingFee"`
	TotalAmount int64                 `json:"totalAmount"`
	Status      enums.InvoiceStatus   `json:"status"`
	OrderCode   int64                 `json:"orderCode"`
	Provider    enums.PaymentProvider `json:"provider"`
	CheckoutURL *string               `json:"checkoutUrl,omitempty"`
	PaidAt      *time.Time            `json:"paidAt,omitempty"`
	CancelledAt *time.Time            `json:"cancelledAt,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	Items       []InvoiceItemView     `json:"items,omitempty"`
}

// ListResult is a page of invoices.
type ListResult struct {
	Invoices []InvoiceView   `json:"invoices"`
	Meta     pagination.Meta `json:"meta"`
}

func toView(inv models.Invoice) InvoiceView {
	view := InvoiceView{
		ID:          inv.ID,
		UserID:      inv.UserID,
		FirstName:   inv.FirstName,
		LastName:    inv.LastName,
		PhoneNumber: inv.PhoneNumber,
		Street:      inv.Street,
		Ward:        inv.Ward,
		District:    inv.District,
		City:        inv.City,
		Amount:      inv.Amount,
		ShippingFee: inv.ShippingFee,
		TotalAmount: inv.TotalAmount,
		Status:      inv.Status,
		OrderCode:   inv.OrderCode,
		Provider:    inv.Provider,
		CheckoutURL: inv.CheckoutURL,
		PaidAt:      inv.PaidAt,
		CancelledAt: inv.CancelledAt,
		CreatedAt:   inv.CreatedAt,
	}
	if inv.User != nil {
		view.Username = inv.User.Username
	}
	for _, item := range inv.Items {
		iv := InvoiceItemView{
			CartItemID: item.CartItemID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			Category:   item.Category,
			Price:      item.UnitPrice.String(),
		}
		if p := item.Product; p != nil {
			iv.ProductName = p.Name
			iv.ImageID = p.ImageID
		}
		view.Items = append(view.Items, iv)
	}
	return view
}
