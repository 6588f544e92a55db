package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"chainraise/contexts/payments-core/provider-gateway/ports"
)

func signedHeader(signingKey string, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(signingKey))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	adapter := Adapter{SigningKey: "whsec_test"}
	body := []byte(`{"type":"payment_intent.succeeded"}`)

	if !adapter.VerifySignature(body, signedHeader("whsec_test", "1725000000", body)) {
		t.Fatalf("expected valid signature to verify")
	}
	if adapter.VerifySignature(body, signedHeader("whsec_other", "1725000000", body)) {
		t.Fatalf("expected signature from wrong key to fail")
	}
	if adapter.VerifySignature(body, "v1=deadbeef") {
		t.Fatalf("expected header without timestamp to fail")
	}
	if adapter.VerifySignature(body, "t=1725000000") {
		t.Fatalf("expected header without candidate to fail")
	}
	if (Adapter{}).VerifySignature(body, signedHeader("whsec_test", "1725000000", body)) {
		t.Fatalf("expected verification to fail without signing key")
	}
}

func TestParseWebhookEventPaymentIntent(t *testing.T) {
	adapter := Adapter{}

	event, err := adapter.ParseWebhookEvent([]byte(`{"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","status":"succeeded"}}}`))
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if event.Kind != ports.EventKindDonation || event.Status != ports.StatusSucceeded {
		t.Fatalf("unexpected classification: kind=%s status=%s", event.Kind, event.Status)
	}
	if event.Reference != "pi_1" {
		t.Fatalf("expected intent id reference, got %q", event.Reference)
	}

	event, err = adapter.ParseWebhookEvent([]byte(`{"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_2","status":"requires_payment_method","last_payment_error":{"message":"Your card was declined."}}}}`))
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if event.Status != ports.StatusFailed {
		t.Fatalf("expected failed status, got %s", event.Status)
	}
	if event.ProviderError != "Your card was declined." {
		t.Fatalf("expected decline message carried, got %q", event.ProviderError)
	}
}

func TestParseWebhookEventPayout(t *testing.T) {
	adapter := Adapter{}

	event, err := adapter.ParseWebhookEvent([]byte(`{"type":"payout.paid","data":{"object":{"id":"po_1","status":"paid"}}}`))
	if err != nil {
		t.Fatalf("parse webhook failed: %v", err)
	}
	if event.Kind != ports.EventKindTransfer || event.Status != ports.StatusSucceeded {
		t.Fatalf("unexpected classification: kind=%s status=%s", event.Kind, event.Status)
	}
}
