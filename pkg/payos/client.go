package payos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api-merchant.payos.vn"
	successCode                 = "00"
	responseBodyReadLimit int64 = 1024
)

var (
	errClientIDRequired    = errors.New("payos client id is required")
	errAPIKeyRequired      = errors.New("payos api key is required")
	errChecksumKeyRequired = errors.New("payos checksum key is required")
)

// Client talks to the PayOS merchant API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	clientID    string
	apiKey      string
	checksumKey string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the PayOS API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a PayOS client from the merchant credentials.
func NewClient(cfg config.PayOSConfig, opts ...Option) (*Client, error) {
	switch {
	case strings.TrimSpace(cfg.ClientID) == "":
		return nil, errClientIDRequired
	case strings.TrimSpace(cfg.APIKey) == "":
		return nil, errAPIKeyRequired
	case strings.TrimSpace(cfg.ChecksumKey) == "":
		return nil, errChecksumKeyRequired
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		baseURL:     defaultBaseURL,
		clientID:    strings.TrimSpace(cfg.ClientID),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		checksumKey: strings.TrimSpace(cfg.ChecksumKey),
	}
	if cfg.BaseURL != "" {
		client.baseURL = cfg.BaseURL
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// PaymentRequest is the body of a payment-link creation call.
type PaymentRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	BuyerName   string `json:"buyerName,omitempty"`
	BuyerPhone  string `json:"buyerPhone,omitempty"`
	ExpiredAt   int64  `json:"expiredAt,omitempty"`
	Signature   string `json:"signature"`
}

// PaymentLink is the subset of the PayOS response the backend uses.
type PaymentLink struct {
	PaymentLinkID string `json:"paymentLinkId"`
	CheckoutURL   string `json:"checkoutUrl"`
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
}

// PaymentLinkInfo describes the current state of an existing link.
type PaymentLinkInfo struct {
	ID         string `json:"id"`
	OrderCode  int64  `json:"orderCode"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amountPaid"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
	CanceledAt string `json:"canceledAt"`
	CancelNote string `json:"cancellationReason"`
}

// Link states reported by PayOS.
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

type envelope struct {
	Code string          `json:"code"`
	Desc string          `json:"desc"`
	Data json.RawMessage `json:"data"`
}

// CreatePaymentLink signs and submits req.
func (c *Client) CreatePaymentLink(ctx context.Context, req PaymentRequest) (*PaymentLink, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payos client not configured")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	req.Signature = c.PaymentRequestSignature(req)

	var link PaymentLink
	if err := c.do(ctx, http.MethodPost, "/v2/payment-requests", req, &link); err != nil {
		return nil, err
	}
	if strings.TrimSpace(link.CheckoutURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payos returned an empty checkout url")
	}
	return &link, nil
}

// GetPaymentLink fetches the link registered for orderCode.
func (c *Client) GetPaymentLink(ctx context.Context, orderCode int64) (*PaymentLinkInfo, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payos client not configured")
	}
	var info PaymentLinkInfo
	if err := c.do(ctx, http.MethodGet, "/v2/payment-requests/"+strconv.FormatInt(orderCode, 10), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CancelPaymentLink voids an unpaid link.
func (c *Client) CancelPaymentLink(ctx context.Context, orderCode int64, reason string) (*PaymentLinkInfo, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payos client not configured")
	}
	body := map[string]string{}
	if reason = strings.TrimSpace(reason); reason != "" {
		body["cancellationReason"] = reason
	}
	var info PaymentLinkInfo
	path := fmt.Sprintf("/v2/payment-requests/%d/cancel", orderCode)
	if err := c.do(ctx, http.MethodPost, path, body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal payos request")
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build payos request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-client-id", c.clientID)
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute payos request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "payos request failed")
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payos response")
	}
	if env.Code != successCode {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payos rejected request: %s %s", env.Code, env.Desc)).
			WithDetails(map[string]any{"payos_code": env.Code})
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payos data")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
