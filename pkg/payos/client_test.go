package payos

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func testConfig() config.PayOSConfig {
	return config.PayOSConfig{ClientID: "client", APIKey: "api-key", ChecksumKey: "checksum"}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(testConfig(), WithBaseURL("http://payos.test"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCreatePaymentLinkRequest(t *testing.T) {
	var captured *http.Request
	var payload map[string]any

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"code":"00","desc":"success","data":{"paymentLinkId":"pl_1","checkoutUrl":"https://pay.payos.vn/web/pl_1","orderCode":1234567,"amount":50000,"status":"PENDING"}}`), nil
	})

	req := PaymentRequest{
		OrderCode:   1234567,
		Amount:      50000,
		Description: "Payment for order 1234567",
		ReturnURL:   "https://fe.test/payment-successful",
		CancelURL:   "https://fe.test/",
	}
	link, err := client.CreatePaymentLink(context.Background(), req)
	if err != nil {
		t.Fatalf("create payment link: %v", err)
	}
	if link.CheckoutURL != "https://pay.payos.vn/web/pl_1" || link.PaymentLinkID != "pl_1" {
		t.Fatalf("unexpected link %+v", link)
	}
	if captured.URL.String() != "http://payos.test/v2/payment-requests" {
		t.Fatalf("unexpected url %s", captured.URL)
	}
	if captured.Header.Get("x-client-id") != "client" || captured.Header.Get("x-api-key") != "api-key" {
		t.Fatalf("credential headers missing: %v", captured.Header)
	}
	want := sign("checksum", "amount=50000&cancelUrl=https://fe.test/&description=Payment for order 1234567&orderCode=1234567&returnUrl=https://fe.test/payment-successful")
	if payload["signature"] != want {
		t.Fatalf("unexpected signature %v", payload["signature"])
	}
}

func TestCreatePaymentLinkFailures(t *testing.T) {
	cases := []struct {
		name string
		resp *http.Response
		err  error
	}{
		{name: "http status", resp: jsonResponse(http.StatusInternalServerError, "boom")},
		{name: "payos code", resp: jsonResponse(http.StatusOK, `{"code":"231","desc":"order exists"}`)},
		{name: "empty url", resp: jsonResponse(http.StatusOK, `{"code":"00","data":{"checkoutUrl":""}}`)},
		{name: "transport", err: errors.New("dial tcp: timeout")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(*http.Request) (*http.Response, error) {
				return tc.resp, tc.err
			})
			_, err := client.CreatePaymentLink(context.Background(), PaymentRequest{OrderCode: 1, Amount: 1000})
			if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
				t.Fatalf("expected dependency error, got %v", err)
			}
		})
	}
}

func TestCreatePaymentLinkRejectsNonPositiveAmount(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := client.CreatePaymentLink(context.Background(), PaymentRequest{OrderCode: 1}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetAndCancelPaymentLink(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		paths = append(paths, req.Method+" "+req.URL.Path)
		return jsonResponse(http.StatusOK, `{"code":"00","data":{"id":"pl_1","orderCode":42,"status":"CANCELLED"}}`), nil
	})

	info, err := client.GetPaymentLink(context.Background(), 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if info.Status != StatusCancelled {
		t.Fatalf("unexpected status %s", info.Status)
	}
	if _, err := client.CancelPaymentLink(context.Background(), 42, "buyer cancelled"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	want := []string{"GET /v2/payment-requests/42", "POST /v2/payment-requests/42/cancel"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected calls %v", paths)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.ChecksumKey = " "
	if _, err := NewClient(cfg); !errors.Is(err, errChecksumKeyRequired) {
		t.Fatalf("expected checksum error, got %v", err)
	}
}
