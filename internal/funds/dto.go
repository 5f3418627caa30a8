package funds

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
)

// CreateInput is a donation request.
type CreateInput struct {
	UserID uuid.UUID
	Amount int64
}

// CheckoutResult is returned once a payment link exists.
type CheckoutResult struct {
	CheckoutURL string `json:"checkoutUrl"`
	OrderCode   int64  `json:"orderCode"`
}

// FundView is the API shape of a donation.
type FundView struct {
	ID           uuid.UUID             `json:"id"`
	UserID       uuid.UUID             `json:"userId"`
	Username     string                `json:"username,omitempty"`
	Amount       int64                 `json:"amount"`
	DateReceived time.Time             `json:"dateReceived"`
	Status       enums.FundStatus      `json:"status"`
	OrderCode    int64                 `json:"orderCode"`
	Provider     enums.PaymentProvider `json:"provider"`
	CheckoutURL  *string               `json:"checkoutUrl,omitempty"`
	ApprovedAt   *time.Time            `json:"approvedAt,omitempty"`
}

// ListResult carries every visible fund with the summed amount.
type ListResult struct {
	Message     string          `json:"message"`
	Funds       []FundView      `json:"funds"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

func toView(f models.Fund) FundView {
	view := FundView{
		ID:           f.ID,
		UserID:       f.UserID,
		Amount:       f.Amount,
		DateReceived: f.DateReceived,
		Status:       f.Status,
		OrderCode:    f.OrderCode,
		Provider:     f.Provider,
		CheckoutURL:  f.CheckoutURL,
		ApprovedAt:   f.ApprovedAt,
	}
	if f.User != nil {
		view.Username = f.User.Username
	}
	return view
}
