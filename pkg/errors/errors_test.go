package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
		clientMsg bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true, clientMsg: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required", clientMsg: true},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied", clientMsg: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", clientMsg: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", clientMsg: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true, clientMsg: true},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", detailsOK: true, clientMsg: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", clientMsg: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
		if meta.ClientMessage != tt.clientMsg {
			t.Fatalf("code %s expected client message %v got %v", tt.code, tt.clientMsg, meta.ClientMessage)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("PAYMENT_DECLINED")
	if meta != MetadataFor(CodeInternal) {
		t.Fatalf("expected internal metadata, got %+v", meta)
	}
}

func TestUnmatchedOrderCodeIsNotFound(t *testing.T) {
	err := New(CodeNotFound, "no invoice or fund matches order code").
		WithDetails(map[string]any{"order_code": int64(41)})

	if err.Error() != "NOT_FOUND: no invoice or fund matches order code" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
	details, ok := err.Details().(map[string]any)
	if !ok || details["order_code"] != int64(41) {
		t.Fatalf("expected order_code detail, got %#v", err.Details())
	}
	if !IsCode(fmt.Errorf("receive hook: %w", err), CodeNotFound) {
		t.Fatal("wrapped webhook error should keep its code")
	}
}

func TestGatewayFailureIsDependencyError(t *testing.T) {
	gateway := stdErrors.New("payos: 502 bad gateway")
	err := Wrap(CodeDependency, gateway, "payment gateway unavailable").
		WithDetails(map[string]any{"order_code": int64(7)})

	if !stdErrors.Is(err, gateway) {
		t.Fatal("Wrap did not preserve the gateway cause")
	}
	if err.Error() != "DEPENDENCY_ERROR: payment gateway unavailable: payos: 502 bad gateway" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
	if !MetadataFor(err.Code()).Retryable {
		t.Fatal("gateway failures should be retryable")
	}
	if details := err.Details().(map[string]any); details["order_code"] != int64(7) {
		t.Fatalf("expected order_code detail, got %v", details)
	}
}

func TestNilErrorAccessorsAreSafe(t *testing.T) {
	var err *Error
	if err.Code() != CodeInternal || err.Message() != "" || err.Details() != nil {
		t.Fatalf("nil error accessors returned %s %q %v", err.Code(), err.Message(), err.Details())
	}
	if err.WithDetails(map[string]any{"order_code": 1}) != nil {
		t.Fatal("WithDetails on nil should stay nil")
	}
	if err.Unwrap() != nil || err.Error() != "" {
		t.Fatal("nil error should render empty")
	}
}

func TestAsReturnsOutermostTypedError(t *testing.T) {
	inner := New(CodeNotFound, "invoice not found")
	outer := Wrap(CodeInternal, fmt.Errorf("settle invoice: %w", inner), "reconcile payment")

	if got := As(outer); got == nil || got.Code() != CodeInternal {
		t.Fatalf("expected outermost internal error, got %v", got)
	}
	if IsCode(outer, CodeNotFound) {
		t.Fatal("IsCode should only look at the outermost typed error")
	}
	if !stdErrors.Is(outer, inner) {
		t.Fatal("inner error should stay reachable")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestCodeOfAndIsCode(t *testing.T) {
	wrapped := stdErrors.Join(stdErrors.New("cart checkout"), New(CodeStateConflict, "cart item is still referenced"))
	if got := CodeOf(wrapped); got != CodeStateConflict {
		t.Fatalf("expected state conflict through join, got %s", got)
	}
	if !IsCode(wrapped, CodeStateConflict) {
		t.Fatalf("IsCode should match joined code")
	}
	if IsCode(stdErrors.New("plain"), CodeNotFound) {
		t.Fatalf("plain errors carry no code")
	}
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal for untyped error, got %s", got)
	}
}

func TestDumpExtractsPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "adoptions_pet_approved_key", TableName: "adoptions", Message: "duplicate key"}
	err := Wrap(CodeConflict, fmt.Errorf("insert adoption: %w", pgErr), "pet already adopted")

	dump := Dump(err)
	if dump.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", dump.Code)
	}
	if dump.DB == nil || dump.DB.Constraint != "adoptions_pet_approved_key" {
		t.Fatalf("expected pg constraint in dump, got %+v", dump.DB)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected three links in chain, got %v", dump.Chain)
	}
	if fields := dump.Fields(); fields["pg_code"] != "23505" {
		t.Fatalf("expected pg_code field, got %v", fields["pg_code"])
	}
}

func TestDumpOfPlainErrorHasNoDBDetail(t *testing.T) {
	dump := Dump(stdErrors.New("plain"))
	if dump.DB != nil || dump.Code != "" {
		t.Fatalf("unexpected dump %+v", dump)
	}
	if _, ok := dump.Fields()["pg_code"]; ok {
		t.Fatal("pg fields should be omitted")
	}
}
