package donationledger_test

import (
	"context"
	"errors"
	"testing"

	donationledger "chainraise/contexts/payments-core/donation-ledger"
	domainerrors "chainraise/contexts/payments-core/donation-ledger/domain/errors"
	"chainraise/contexts/payments-core/donation-ledger/ports"
	httptransport "chainraise/contexts/payments-core/donation-ledger/transport/http"
	providerports "chainraise/contexts/payments-core/provider-gateway/ports"
)

type fakeCampaigns struct {
	funding map[string]ports.CampaignFunding
	applied []float64
}

func (f *fakeCampaigns) GetFunding(_ context.Context, campaignID string) (ports.CampaignFunding, error) {
	funding, ok := f.funding[campaignID]
	if !ok {
		return ports.CampaignFunding{}, errors.New("campaign not found")
	}
	return funding, nil
}

func (f *fakeCampaigns) ApplyBalance(_ context.Context, _ string, currentAmount float64) error {
	f.applied = append(f.applied, currentAmount)
	return nil
}

type fakeAccruer struct {
	accrued []ports.AccrualInput
}

func (f *fakeAccruer) AccrueCommission(_ context.Context, input ports.AccrualInput) error {
	f.accrued = append(f.accrued, input)
	return nil
}

func activeCampaign(currency string) *fakeCampaigns {
	return &fakeCampaigns{funding: map[string]ports.CampaignFunding{
		"camp-1": {
			CampaignID: "camp-1",
			OwnerID:    "owner-1",
			Currency:   currency,
			GoalAmount: 500,
			Accepting:  true,
		},
	}}
}

func createDonation(t *testing.T, module donationledger.Module, idemKey string, req httptransport.CreateDonationRequest) httptransport.DonationDTO {
	t.Helper()
	resp, err := module.Handler.CreateDonationHandler(context.Background(), "donor-1", idemKey, req)
	if err != nil {
		t.Fatalf("create donation failed: %v", err)
	}
	return resp.Data
}

func donationRequest(reference string) httptransport.CreateDonationRequest {
	return httptransport.CreateDonationRequest{
		CampaignID:        "camp-1",
		Amount:            30,
		Currency:          "USD",
		PaymentMethod:     "paystack",
		ProviderReference: reference,
	}
}

func succeededEvent(reference string) ports.ProviderEvent {
	return ports.ProviderEvent{
		Provider:       "paystack",
		Reference:      reference,
		Status:         providerports.StatusSucceeded,
		ProviderStatus: "success",
	}
}

func failedEvent(reference string, reason string) ports.ProviderEvent {
	return ports.ProviderEvent{
		Provider:       "paystack",
		Reference:      reference,
		Status:         providerports.StatusFailed,
		ProviderStatus: "failed",
		ProviderError:  reason,
	}
}

func TestDonationCreateAndIdempotencyReplay(t *testing.T) {
	module := donationledger.NewInMemoryModule(activeCampaign("USD"), nil, nil)

	first := createDonation(t, module, "idem-don-1", donationRequest("ref-1"))
	if first.PaymentStatus != "pending" {
		t.Fatalf("expected pending donation, got %s", first.PaymentStatus)
	}

	second, err := module.Handler.CreateDonationHandler(context.Background(), "donor-1", "idem-don-1", donationRequest("ref-1"))
	if err != nil {
		t.Fatalf("replay donation failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed response")
	}
	if second.Data.DonationID != first.DonationID {
		t.Fatalf("expected same donation id, got %s and %s", first.DonationID, second.Data.DonationID)
	}

	changed := donationRequest("ref-1")
	changed.Amount = 99
	_, err = module.Handler.CreateDonationHandler(context.Background(), "donor-1", "idem-don-1", changed)
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected idempotency key conflict, got %v", err)
	}
}

func TestDonationCampaignNotAccepting(t *testing.T) {
	campaigns := activeCampaign("USD")
	funding := campaigns.funding["camp-1"]
	funding.Accepting = false
	campaigns.funding["camp-1"] = funding
	module := donationledger.NewInMemoryModule(campaigns, nil, nil)

	_, err := module.Handler.CreateDonationHandler(context.Background(), "donor-1", "idem-don-2", donationRequest("ref-2"))
	if !errors.Is(err, domainerrors.ErrCampaignNotAccepting) {
		t.Fatalf("expected campaign not accepting, got %v", err)
	}
}

func TestDonationCompletionAppliesBalanceAndCommission(t *testing.T) {
	campaigns := activeCampaign("USD")
	accruer := &fakeAccruer{}
	module := donationledger.NewInMemoryModule(campaigns, accruer, nil)

	req := donationRequest("ref-3")
	req.ReferrerID = "referrer-1"
	created := createDonation(t, module, "idem-don-3", req)

	updated, matched, err := module.Service.ApplyProviderEvent(context.Background(), succeededEvent("ref-3"))
	if err != nil {
		t.Fatalf("apply succeeded event failed: %v", err)
	}
	if !matched {
		t.Fatalf("expected event to match donation")
	}
	if updated.PaymentStatus != "completed" {
		t.Fatalf("expected completed donation, got %s", updated.PaymentStatus)
	}
	if updated.ProcessedAt == nil {
		t.Fatalf("expected processed timestamp")
	}
	if len(campaigns.applied) != 1 || campaigns.applied[0] != 30 {
		t.Fatalf("expected one balance apply of 30, got %v", campaigns.applied)
	}
	if len(accruer.accrued) != 1 {
		t.Fatalf("expected one commission accrual, got %d", len(accruer.accrued))
	}
	if accruer.accrued[0].DonationID != created.DonationID || accruer.accrued[0].Amount != 30 {
		t.Fatalf("unexpected accrual input: %+v", accruer.accrued[0])
	}

	// Replaying the success must not double-count anything.
	replayed, matched, err := module.Service.ApplyProviderEvent(context.Background(), succeededEvent("ref-3"))
	if err != nil || !matched {
		t.Fatalf("replay succeeded event failed: matched=%v err=%v", matched, err)
	}
	if replayed.PaymentStatus != "completed" {
		t.Fatalf("expected donation to stay completed, got %s", replayed.PaymentStatus)
	}
	if len(campaigns.applied) != 1 {
		t.Fatalf("expected no extra balance apply on replay, got %v", campaigns.applied)
	}
	if len(accruer.accrued) != 1 {
		t.Fatalf("expected no extra accrual on replay, got %d", len(accruer.accrued))
	}
}

func TestDonationBalanceSumsOnlyCompleted(t *testing.T) {
	campaigns := activeCampaign("USD")
	module := donationledger.NewInMemoryModule(campaigns, nil, nil)

	createDonation(t, module, "idem-don-4a", donationRequest("ref-4a"))
	reqB := donationRequest("ref-4b")
	reqB.Amount = 50
	createDonation(t, module, "idem-don-4b", reqB)
	reqC := donationRequest("ref-4c")
	reqC.Amount = 70
	createDonation(t, module, "idem-don-4c", reqC)

	mustApply := func(event ports.ProviderEvent) {
		t.Helper()
		if _, _, err := module.Service.ApplyProviderEvent(context.Background(), event); err != nil {
			t.Fatalf("apply event failed: %v", err)
		}
	}
	mustApply(succeededEvent("ref-4a"))
	mustApply(succeededEvent("ref-4b"))
	mustApply(failedEvent("ref-4c", "card declined"))

	if len(campaigns.applied) != 2 {
		t.Fatalf("expected two balance applies, got %v", campaigns.applied)
	}
	if campaigns.applied[1] != 80 {
		t.Fatalf("expected final balance 80 from completed donations only, got %v", campaigns.applied[1])
	}
}

func TestDonationCurrencyConversionOnCompletion(t *testing.T) {
	campaigns := activeCampaign("USD")
	module := donationledger.NewInMemoryModule(campaigns, nil, nil)

	req := donationRequest("ref-5")
	req.Amount = 100000
	req.Currency = "NGN"
	createDonation(t, module, "idem-don-5", req)

	updated, _, err := module.Service.ApplyProviderEvent(context.Background(), succeededEvent("ref-5"))
	if err != nil {
		t.Fatalf("apply succeeded event failed: %v", err)
	}
	if updated.ConvertedCurrency != "USD" {
		t.Fatalf("expected conversion into USD, got %q", updated.ConvertedCurrency)
	}
	if updated.ConvertedAmount != 65 {
		t.Fatalf("expected 100000 NGN to convert to 65 USD, got %v", updated.ConvertedAmount)
	}
	if len(campaigns.applied) != 1 || campaigns.applied[0] != 65 {
		t.Fatalf("expected balance apply of converted amount, got %v", campaigns.applied)
	}
}

func TestDonationAuthErrorLeavesStatusUntouched(t *testing.T) {
	campaigns := activeCampaign("USD")
	module := donationledger.NewInMemoryModule(campaigns, nil, nil)

	createDonation(t, module, "idem-don-6", donationRequest("ref-6"))

	updated, matched, err := module.Service.ApplyProviderEvent(context.Background(), ports.ProviderEvent{
		Provider:      "paystack",
		Reference:     "ref-6",
		Status:        providerports.StatusAuthError,
		ProviderError: "invalid api key",
	})
	if err != nil || !matched {
		t.Fatalf("apply auth error failed: matched=%v err=%v", matched, err)
	}
	if updated.PaymentStatus != "pending" {
		t.Fatalf("expected auth error to leave donation pending, got %s", updated.PaymentStatus)
	}
	if updated.ProviderError != "invalid api key" {
		t.Fatalf("expected provider error recorded, got %q", updated.ProviderError)
	}
	if len(campaigns.applied) != 0 {
		t.Fatalf("expected no balance apply on auth error, got %v", campaigns.applied)
	}
}

func TestDonationFailureRetryCap(t *testing.T) {
	campaigns := activeCampaign("USD")
	module := donationledger.NewInMemoryModule(campaigns, nil, nil)

	createDonation(t, module, "idem-don-7", donationRequest("ref-7"))

	var last string
	for i := 0; i < 4; i++ {
		updated, _, err := module.Service.ApplyProviderEvent(context.Background(), failedEvent("ref-7", "card declined"))
		if err != nil {
			t.Fatalf("apply failed event %d: %v", i, err)
		}
		if updated.PaymentStatus != "failed" {
			t.Fatalf("expected failed donation, got %s", updated.PaymentStatus)
		}
		if updated.RetryAttempts != i+1 {
			t.Fatalf("expected %d retry attempts, got %d", i+1, updated.RetryAttempts)
		}
		last = updated.FailureReason
	}
	if last != "max retries exceeded" {
		t.Fatalf("expected max retries marker after cap, got %q", last)
	}
}

func TestDonationCompletedIsTerminal(t *testing.T) {
	campaigns := activeCampaign("USD")
	module := donationledger.NewInMemoryModule(campaigns, nil, nil)

	createDonation(t, module, "idem-don-8", donationRequest("ref-8"))
	if _, _, err := module.Service.ApplyProviderEvent(context.Background(), succeededEvent("ref-8")); err != nil {
		t.Fatalf("apply succeeded event failed: %v", err)
	}

	updated, matched, err := module.Service.ApplyProviderEvent(context.Background(), failedEvent("ref-8", "late decline"))
	if err != nil || !matched {
		t.Fatalf("apply late failure: matched=%v err=%v", matched, err)
	}
	if updated.PaymentStatus != "completed" {
		t.Fatalf("expected completed to stay terminal, got %s", updated.PaymentStatus)
	}
	if len(campaigns.applied) != 1 {
		t.Fatalf("expected balance untouched by late failure, got %v", campaigns.applied)
	}
}

func TestDonationUnmatchedReference(t *testing.T) {
	module := donationledger.NewInMemoryModule(activeCampaign("USD"), nil, nil)

	_, matched, err := module.Service.ApplyProviderEvent(context.Background(), succeededEvent("ref-nobody"))
	if err != nil {
		t.Fatalf("apply unmatched event failed: %v", err)
	}
	if matched {
		t.Fatalf("expected no match for unknown reference")
	}
}
