package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	"github.com/hopefultail/hopeful-tail-backend/pkg/payos"
	"github.com/hopefultail/hopeful-tail-backend/pkg/square"
)

// LinkRequest is what a gateway needs to open a hosted checkout.
type LinkRequest struct {
	Amount      int64
	OrderCode   int64
	Description string
	ReturnURL   string
	CancelURL   string
}

// Link is the hosted checkout returned by a gateway.
type Link struct {
	CheckoutURL   string
	PaymentLinkID string
}

// Gateway creates payment links.
type Gateway interface {
	Provider() enums.PaymentProvider
	CreateLink(ctx context.Context, req LinkRequest) (*Link, error)
}

type payosLinkClient interface {
	CreatePaymentLink(ctx context.Context, req payos.PaymentRequest) (*payos.PaymentLink, error)
}

// PayOSGateway issues links through the PayOS merchant API.
type PayOSGateway struct {
	client payosLinkClient
}

func NewPayOSGateway(client payosLinkClient) *PayOSGateway {
	return &PayOSGateway{client: client}
}

func (g *PayOSGateway) Provider() enums.PaymentProvider { return enums.PaymentProviderPayOS }

func (g *PayOSGateway) CreateLink(ctx context.Context, req LinkRequest) (*Link, error) {
	link, err := g.client.CreatePaymentLink(ctx, payos.PaymentRequest{
		OrderCode:   req.OrderCode,
		Amount:      req.Amount,
		Description: req.Description,
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
	})
	if err != nil {
		return nil, err
	}
	return &Link{CheckoutURL: link.CheckoutURL, PaymentLinkID: link.PaymentLinkID}, nil
}

type squareLinkClient interface {
	CreatePaymentLink(ctx context.Context, params square.PaymentLinkParams) (*square.PaymentLink, error)
}

// SquareGateway issues links through Square Checkout.
type SquareGateway struct {
	client   squareLinkClient
	currency string
}

func NewSquareGateway(client squareLinkClient, currency string) *SquareGateway {
	return &SquareGateway{client: client, currency: currency}
}

func (g *SquareGateway) Provider() enums.PaymentProvider { return enums.PaymentProviderSquare }

func (g *SquareGateway) CreateLink(ctx context.Context, req LinkRequest) (*Link, error) {
	link, err := g.client.CreatePaymentLink(ctx, square.PaymentLinkParams{
		OrderCode:      req.OrderCode,
		Amount:         req.Amount,
		Currency:       g.currency,
		Description:    req.Description,
		RedirectURL:    req.ReturnURL,
		IdempotencyKey: fmt.Sprintf("link-%d", req.OrderCode),
	})
	if err != nil {
		return nil, err
	}
	return &Link{CheckoutURL: link.URL, PaymentLinkID: link.ID}, nil
}

// SelectGateway picks the configured provider. The client for the other
// provider may be nil.
func SelectGateway(cfg config.PaymentsConfig, payosClient *payos.Client, squareClient *square.Client) (Gateway, error) {
	switch cfg.ProviderName() {
	case config.PaymentProviderPayOS:
		if payosClient == nil {
			return nil, fmt.Errorf("payos client is required")
		}
		return NewPayOSGateway(payosClient), nil
	case config.PaymentProviderSquare:
		if squareClient == nil {
			return nil, fmt.Errorf("square client is required")
		}
		return NewSquareGateway(squareClient, strings.ToUpper(cfg.Currency)), nil
	default:
		return nil, fmt.Errorf("unsupported payments provider %q", cfg.Provider)
	}
}
