package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hopefultail/hopeful-tail-backend/internal/payments"
	"github.com/hopefultail/hopeful-tail-backend/pkg/enums"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/payos"
)

type fakeReconciler struct {
	calls []payments.Notification
	err   error
}

func (f *fakeReconciler) Handle(_ context.Context, n payments.Notification) (payments.Result, error) {
	f.calls = append(f.calls, n)
	if f.err != nil {
		return payments.Result{OrderCode: n.OrderCode}, f.err
	}
	return payments.Result{Outcome: enums.PaymentEventOutcomeApplied, Target: payments.KindInvoice, OrderCode: n.OrderCode, Applied: true}, nil
}

func payosBody(t *testing.T, key, code string, orderCode int64) string {
	t.Helper()
	data := fmt.Sprintf(`{"orderCode":%d,"amount":291001,"description":"Payment for order %d","reference":"FT1","code":"%s","desc":"success"}`, orderCode, orderCode, code)
	sig := "bogus"
	if key != "" {
		var err error
		sig, err = payos.SignWebhookData(key, json.RawMessage(data))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
	}
	return fmt.Sprintf(`{"code":"00","desc":"success","data":%s,"signature":%q}`, data, sig)
}

func TestPayOSReceiveHookSettles(t *testing.T) {
	rec := &fakeReconciler{}
	handler := PayOSReceiveHook(rec, "checksum", nil)

	req := httptest.NewRequest(http.MethodPost, "/receive-hook", strings.NewReader(payosBody(t, "checksum", "00", 4321)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected one reconcile call, got %d", len(rec.calls))
	}
	got := rec.calls[0]
	if got.OrderCode != 4321 || got.Code != "00" || got.Provider != enums.PaymentProviderPayOS || got.Reference != "FT1" {
		t.Fatalf("unexpected notification %+v", got)
	}
}

func TestPayOSReceiveHookRejectsBadSignature(t *testing.T) {
	rec := &fakeReconciler{}
	handler := PayOSReceiveHook(rec, "checksum", nil)

	req := httptest.NewRequest(http.MethodPost, "/receive-hook", strings.NewReader(payosBody(t, "", "00", 4321)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if len(rec.calls) != 0 {
		t.Fatal("reconciler must not run for a forged callback")
	}
}

func TestPayOSReceiveHookSkipsSignatureWithoutKey(t *testing.T) {
	rec := &fakeReconciler{}
	handler := PayOSReceiveHook(rec, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/receive-hook", strings.NewReader(payosBody(t, "", "00", 99)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPayOSReceiveHookMapsReconcilerErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"not applicable": {pkgerrors.New(pkgerrors.CodeValidation, "payment was not successful"), http.StatusBadRequest},
		"unmatched":      {pkgerrors.New(pkgerrors.CodeNotFound, "no invoice or fund matches order code"), http.StatusNotFound},
		"db failure":     {pkgerrors.New(pkgerrors.CodeInternal, "reconcile payment"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			handler := PayOSReceiveHook(&fakeReconciler{err: tc.err}, "", nil)
			req := httptest.NewRequest(http.MethodPost, "/receive-hook", strings.NewReader(payosBody(t, "", "01", 7)))
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, resp.Code)
			}
		})
	}
}

func TestPayOSReceiveHookRejectsMalformedBody(t *testing.T) {
	for _, body := range []string{`not json`, `{"code":"00"}`} {
		handler := PayOSReceiveHook(&fakeReconciler{}, "", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/receive-hook", strings.NewReader(body)))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400 got %d", body, resp.Code)
		}
	}
}
