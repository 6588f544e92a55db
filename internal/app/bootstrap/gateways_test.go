package bootstrap

import (
	"context"
	"testing"

	ledgerports "chainraise/contexts/payments-core/donation-ledger/ports"
)

func TestCharityFallbackTargetNeverMatches(t *testing.T) {
	matched, err := charityFallbackTarget{}.ApplyCharityDonationEvent(context.Background(), ledgerports.ProviderEvent{
		Provider:  "paystack",
		Reference: "ref-unknown",
	})
	if err != nil {
		t.Fatalf("charity fallback returned error: %v", err)
	}
	if matched {
		t.Fatalf("charity fallback must never match")
	}
}
