package payos

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidSignature is returned when a webhook checksum does not match.
var ErrInvalidSignature = errors.New("payos signature mismatch")

// PaymentRequestSignature signs the five fields PayOS checks on link creation.
func (c *Client) PaymentRequestSignature(req PaymentRequest) string {
	raw := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		req.Amount, req.CancelURL, req.Description, req.OrderCode, req.ReturnURL)
	return sign(c.checksumKey, raw)
}

// VerifyWebhookData checks signature against the raw webhook data object.
func (c *Client) VerifyWebhookData(data json.RawMessage, signature string) error {
	if c == nil {
		return errChecksumKeyRequired
	}
	return VerifyWebhookData(c.checksumKey, data, signature)
}

// VerifyWebhookData renders data as sorted key=value pairs and compares the
// HMAC-SHA256 digest with signature.
func VerifyWebhookData(checksumKey string, data json.RawMessage, signature string) error {
	raw, err := canonicalData(data)
	if err != nil {
		return err
	}
	want := sign(checksumKey, raw)
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return ErrInvalidSignature
	}
	return nil
}

// SignWebhookData produces the signature PayOS would send for data.
func SignWebhookData(checksumKey string, data json.RawMessage) (string, error) {
	raw, err := canonicalData(data)
	if err != nil {
		return "", err
	}
	return sign(checksumKey, raw), nil
}

func canonicalData(data json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return "", fmt.Errorf("decode webhook data: %w", err)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := renderValue(fields[k])
		if err != nil {
			return "", err
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, "&"), nil
}

func renderValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		if val == "null" || val == "undefined" {
			return "", nil
		}
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func sign(key, raw string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
