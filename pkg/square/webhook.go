package square

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SignatureHeader carries the HMAC of notification URL + body.
const SignatureHeader = "x-square-hmacsha256-signature"

var (
	ErrInvalidSignature = errors.New("square signature mismatch")
	errSignatureKey     = errors.New("square webhook signature key is not configured")
	orderCodeInNote     = regexp.MustCompile(`order (\d+)`)
)

// PaymentEvent is the subset of a payment.* notification the backend reads.
type PaymentEvent struct {
	EventID     string
	Type        string
	PaymentID   string
	Status      string
	OrderID     string
	ReferenceID string
	Note        string
	Amount      int64
	Raw         json.RawMessage
}

// Completed reports whether the payment settled.
func (e PaymentEvent) Completed() bool {
	return e.Type == "payment.updated" && e.Status == "COMPLETED"
}

// OrderCode extracts the order code from the reference id, falling back to
// the payment note written at link creation.
func (e PaymentEvent) OrderCode() (int64, bool) {
	if code, err := strconv.ParseInt(strings.TrimSpace(e.ReferenceID), 10, 64); err == nil && code > 0 {
		return code, true
	}
	if m := orderCodeInNote.FindStringSubmatch(e.Note); len(m) == 2 {
		if code, err := strconv.ParseInt(m[1], 10, 64); err == nil && code > 0 {
			return code, true
		}
	}
	return 0, false
}

// VerifyWebhook checks the Square signature header for body.
func (c *Client) VerifyWebhook(body []byte, signature string) error {
	if c == nil || c.signatureKey == "" {
		return errSignatureKey
	}
	return VerifySignature(c.signatureKey, c.notifyURL, body, signature)
}

// VerifySignature compares base64(HMAC-SHA256(key, url+body)) with signature.
func VerifySignature(key, notificationURL string, body []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(notificationURL))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(strings.TrimSpace(signature))) {
		return ErrInvalidSignature
	}
	return nil
}

// ParsePaymentEvent decodes a Square payment notification.
func ParsePaymentEvent(body []byte) (PaymentEvent, error) {
	var payload struct {
		EventID string `json:"event_id"`
		Type    string `json:"type"`
		Data    struct {
			Object struct {
				Payment struct {
					ID          string `json:"id"`
					Status      string `json:"status"`
					OrderID     string `json:"order_id"`
					ReferenceID string `json:"reference_id"`
					Note        string `json:"note"`
					AmountMoney struct {
						Amount int64 `json:"amount"`
					} `json:"amount_money"`
				} `json:"payment"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return PaymentEvent{}, fmt.Errorf("decode square event: %w", err)
	}
	p := payload.Data.Object.Payment
	return PaymentEvent{
		EventID:     payload.EventID,
		Type:        payload.Type,
		PaymentID:   p.ID,
		Status:      p.Status,
		OrderID:     p.OrderID,
		ReferenceID: p.ReferenceID,
		Note:        p.Note,
		Amount:      p.AmountMoney.Amount,
		Raw:         json.RawMessage(body),
	}, nil
}
