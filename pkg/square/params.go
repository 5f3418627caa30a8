package square

import (
	"strconv"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqcheckout "github.com/square/square-go-sdk/checkout"
)

// PaymentLinkParams describes a hosted checkout for one order code.
type PaymentLinkParams struct {
	OrderCode      int64
	Amount         int64
	Currency       string
	Description    string
	RedirectURL    string
	IdempotencyKey string
}

// PaymentLink is the created Square checkout.
type PaymentLink struct {
	ID      string
	URL     string
	OrderID string
}

func (p PaymentLinkParams) toSquareRequest(locationID, idempotencyKey string) *sqcheckout.CreatePaymentLinkRequest {
	reference := strconv.FormatInt(p.OrderCode, 10)
	name := strings.TrimSpace(p.Description)
	if name == "" {
		name = "Order " + reference
	}
	req := &sqcheckout.CreatePaymentLinkRequest{
		IdempotencyKey: ptrString(idempotencyKey),
		Description:    ptrString(name),
		PaymentNote:    ptrString(name),
		Order: &sq.Order{
			LocationID:  locationID,
			ReferenceID: ptrString(reference),
			LineItems: []*sq.OrderLineItem{{
				Name:           ptrString(name),
				Quantity:       "1",
				BasePriceMoney: moneyPtr(p.Amount, p.Currency),
			}},
		},
	}
	if trimmed := strings.TrimSpace(p.RedirectURL); trimmed != "" {
		req.CheckoutOptions = &sq.CheckoutOptions{RedirectURL: ptrString(trimmed)}
	}
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "VND"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
