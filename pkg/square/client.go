package square

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqcheckout "github.com/square/square-go-sdk/checkout"
	sqclient "github.com/square/square-go-sdk/client"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
)

var hosts = map[string]string{
	"sandbox":    "https://connect.squareupsandbox.com",
	"production": "https://connect.squareup.com",
}

type paymentLinksAPI interface {
	Create(ctx context.Context, req *sqcheckout.CreatePaymentLinkRequest, opts ...sqoption.RequestOption) (*sq.CreatePaymentLinkResponse, error)
}

// Client creates Square hosted checkout links and verifies Square webhook
// signatures. Only the PaymentLinks API is used.
type Client struct {
	links        paymentLinksAPI
	locationID   string
	environment  string
	signatureKey string
	notifyURL    string
	logger       *logger.Logger
}

func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errors.New("square logger is required")
	}
	env := cfg.Environment()
	host, ok := hosts[env]
	if !ok {
		return nil, fmt.Errorf("square environment %q is not sandbox or production", env)
	}
	token := strings.TrimSpace(cfg.AccessToken)
	location := strings.TrimSpace(cfg.LocationID)
	switch {
	case token == "":
		return nil, errors.New("square access token is required")
	case location == "":
		return nil, errors.New("square location id is required")
	}

	sdk := sqclient.NewClient(sqoption.WithBaseURL(host), sqoption.WithToken(token))
	logg.Info(logg.WithFields(ctx, map[string]any{"square_env": env, "location_id": location}), "square.ready")
	return &Client{
		links:        sdk.Checkout.PaymentLinks,
		locationID:   location,
		environment:  env,
		signatureKey: strings.TrimSpace(cfg.WebhookSignatureKey),
		notifyURL:    strings.TrimSpace(cfg.WebhookURL),
		logger:       logg,
	}, nil
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreatePaymentLink opens a hosted checkout for a single-line order. The
// order's reference id carries the order code so webhooks can be matched.
func (c *Client) CreatePaymentLink(ctx context.Context, params PaymentLinkParams) (*PaymentLink, error) {
	if c == nil || c.links == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square client not configured")
	}
	key := strings.TrimSpace(params.IdempotencyKey)
	if key == "" {
		key = "link-" + uuid.NewString()
	}

	start := time.Now()
	resp, err := c.links.Create(ctx, params.toSquareRequest(c.locationID, key))
	c.trace(ctx, "create_payment_link", start, err, map[string]any{
		"order_code":      params.OrderCode,
		"amount":          params.Amount,
		"idempotency_key": key,
	})
	if err != nil {
		return nil, c.mapSquareError(err, "create payment link")
	}

	link := resp.GetPaymentLink()
	if link == nil || stringValue(link.GetURL()) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square returned an empty payment link")
	}
	return &PaymentLink{
		ID:      stringValue(link.GetID()),
		URL:     stringValue(link.GetURL()),
		OrderID: stringValue(link.GetOrderID()),
	}, nil
}

// trace writes one entry per Square call.
func (c *Client) trace(ctx context.Context, op string, start time.Time, err error, fields map[string]any) {
	if c.logger == nil {
		return
	}
	safe := map[string]any{"square_op": op, "duration_ms": time.Since(start).Milliseconds()}
	for k, v := range fields {
		safe[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, safe)
	if err != nil {
		c.logger.Error(ctx, "square.call_failed", err)
		return
	}
	c.logger.Info(ctx, "square.call")
}

var sensitiveKeys = []string{"token", "secret", "signature", "email", "phone", "idempotency"}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return "[REDACTED]"
		}
	}
	return value
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
