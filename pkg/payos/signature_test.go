package payos

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCanonicalDataSortsAndFlattens(t *testing.T) {
	data := json.RawMessage(`{"orderCode":123,"amount":3000,"description":"VQRIO123","accountNumber":"12345678","reference":"TF230204212323","counterAccountName":null,"virtualAccountName":"","code":"00"}`)
	got, err := canonicalData(data)
	if err != nil {
		t.Fatalf("canonical: %v", err)
	}
	want := "accountNumber=12345678&amount=3000&code=00&counterAccountName=&description=VQRIO123&orderCode=123&reference=TF230204212323&virtualAccountName="
	if got != want {
		t.Fatalf("unexpected canonical form\n got %s\nwant %s", got, want)
	}
}

func TestVerifyWebhookData(t *testing.T) {
	data := json.RawMessage(`{"orderCode":987654,"amount":100000,"code":"00","desc":"success","reference":"FT123"}`)
	signature, err := SignWebhookData("checksum", data)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if err := VerifyWebhookData("checksum", data, signature); err != nil {
		t.Fatalf("expected signature to verify: %v", err)
	}
	if err := VerifyWebhookData("other-key", data, signature); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected mismatch with other key, got %v", err)
	}
	tampered := json.RawMessage(`{"orderCode":987654,"amount":1,"code":"00","desc":"success","reference":"FT123"}`)
	if err := VerifyWebhookData("checksum", tampered, signature); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected mismatch on tampered data, got %v", err)
	}
	if err := VerifyWebhookData("checksum", json.RawMessage(`[1,2]`), signature); err == nil {
		t.Fatal("expected non-object data to fail")
	}
}
