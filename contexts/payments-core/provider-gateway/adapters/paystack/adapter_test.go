package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"chainraise/contexts/payments-core/provider-gateway/ports"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	adapter := Adapter{SecretKey: "sk_test_secret"}
	body := []byte(`{"event":"charge.success"}`)

	if !adapter.VerifySignature(body, sign("sk_test_secret", body)) {
		t.Fatalf("expected valid signature to verify")
	}
	if adapter.VerifySignature(body, sign("wrong_secret", body)) {
		t.Fatalf("expected signature from wrong secret to fail")
	}
	if adapter.VerifySignature(body, "") {
		t.Fatalf("expected empty signature to fail")
	}
	if (Adapter{}).VerifySignature(body, sign("sk_test_secret", body)) {
		t.Fatalf("expected verification to fail without configured secret")
	}
}

func TestParseWebhookEventChargeSuccess(t *testing.T) {
	adapter := Adapter{SecretKey: "sk"}
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1","status":"success"}}`)

	event, err := adapter.ParseWebhookEvent(body)
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if event.Kind != ports.EventKindDonation {
		t.Fatalf("expected donation event, got %s", event.Kind)
	}
	if event.Status != ports.StatusSucceeded {
		t.Fatalf("expected succeeded status, got %s", event.Status)
	}
	if event.Reference != "ref-1" {
		t.Fatalf("expected reference ref-1, got %q", event.Reference)
	}
}

func TestParseWebhookEventChargeFailed(t *testing.T) {
	adapter := Adapter{SecretKey: "sk"}
	body := []byte(`{"event":"charge.failed","data":{"reference":"ref-2","status":"failed","gateway_response":"Declined"}}`)

	event, err := adapter.ParseWebhookEvent(body)
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if event.Status != ports.StatusFailed {
		t.Fatalf("expected failed status, got %s", event.Status)
	}
	if event.ProviderError != "Declined" {
		t.Fatalf("expected gateway response carried, got %q", event.ProviderError)
	}
}

func TestParseWebhookEventTransferFallsBackToTransferCode(t *testing.T) {
	adapter := Adapter{SecretKey: "sk"}
	body := []byte(`{"event":"transfer.success","data":{"transfer_code":"TRF_1","status":"success"}}`)

	event, err := adapter.ParseWebhookEvent(body)
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if event.Kind != ports.EventKindTransfer {
		t.Fatalf("expected transfer event, got %s", event.Kind)
	}
	if event.Reference != "TRF_1" {
		t.Fatalf("expected transfer code fallback, got %q", event.Reference)
	}
}

func TestParseWebhookEventUnknownType(t *testing.T) {
	adapter := Adapter{SecretKey: "sk"}
	body := []byte(`{"event":"subscription.create","data":{"reference":"ref-3"}}`)

	event, err := adapter.ParseWebhookEvent(body)
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if event.Kind != ports.EventKindUnknown {
		t.Fatalf("expected unknown kind, got %s", event.Kind)
	}
}
