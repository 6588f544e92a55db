package workers_test

import (
	"context"
	"testing"
	"time"

	donationledger "chainraise/contexts/payments-core/donation-ledger"
	"chainraise/contexts/payments-core/donation-ledger/application"
	"chainraise/contexts/payments-core/donation-ledger/application/workers"
	"chainraise/contexts/payments-core/donation-ledger/ports"
	providerports "chainraise/contexts/payments-core/provider-gateway/ports"
)

type fakeCampaigns struct{}

func (fakeCampaigns) GetFunding(_ context.Context, campaignID string) (ports.CampaignFunding, error) {
	return ports.CampaignFunding{
		CampaignID: campaignID,
		OwnerID:    "owner-1",
		Currency:   "USD",
		GoalAmount: 1000,
		Accepting:  true,
	}, nil
}

func (fakeCampaigns) ApplyBalance(context.Context, string, float64) error { return nil }

type fakePublisher struct {
	topics []string
}

func (f *fakePublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	f.topics = append(f.topics, topic)
	return nil
}

type fakeFetcher struct {
	result providerports.StatusResult
	calls  int
}

func (f *fakeFetcher) FetchStatus(context.Context, string, string) (providerports.StatusResult, error) {
	f.calls++
	return f.result, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func pendingDonation(t *testing.T, module donationledger.Module, idemKey string, reference string) {
	t.Helper()
	_, _, err := module.Service.CreateDonation(context.Background(), idemKey, application.CreateDonationInput{
		CampaignID:        "camp-1",
		DonorID:           "donor-1",
		Amount:            30,
		Currency:          "USD",
		PaymentMethod:     "paystack",
		ProviderReference: reference,
	})
	if err != nil {
		t.Fatalf("create donation failed: %v", err)
	}
}

func TestOutboxRelayPublishesAndMarks(t *testing.T) {
	module := donationledger.NewInMemoryModule(fakeCampaigns{}, nil, nil)
	pendingDonation(t, module, "idem-relay-1", "ref-relay-1")

	if _, _, err := module.Service.ApplyProviderEvent(context.Background(), ports.ProviderEvent{
		Provider:  "paystack",
		Reference: "ref-relay-1",
		Status:    providerports.StatusSucceeded,
	}); err != nil {
		t.Fatalf("apply succeeded event failed: %v", err)
	}

	publisher := &fakePublisher{}
	relay := workers.OutboxRelay{
		Outbox:    module.Store,
		Publisher: publisher,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "donation_succeeded" {
		t.Fatalf("expected one donation_succeeded publish, got %v", publisher.topics)
	}

	// A second cycle must find nothing pending.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	if len(publisher.topics) != 1 {
		t.Fatalf("expected no re-publish of marked rows, got %v", publisher.topics)
	}
}

func TestPendingReconcilerResolvesStaleDonations(t *testing.T) {
	module := donationledger.NewInMemoryModule(fakeCampaigns{}, nil, nil)
	pendingDonation(t, module, "idem-recon-1", "ref-recon-1")

	fetcher := &fakeFetcher{result: providerports.StatusResult{
		Status:         providerports.StatusSucceeded,
		ProviderStatus: "success",
	}}
	reconciler := workers.PendingReconciler{
		Service:    module.Service,
		Repo:       module.Store,
		Provider:   fetcher,
		Clock:      fixedClock{now: time.Now().Add(time.Hour)},
		StaleAfter: 15 * time.Minute,
	}
	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("reconciler run failed: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one provider status fetch, got %d", fetcher.calls)
	}

	donations, err := module.Service.ListByCampaign(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("list donations failed: %v", err)
	}
	if len(donations) != 1 || donations[0].PaymentStatus != "completed" {
		t.Fatalf("expected reconciled donation completed, got %+v", donations)
	}
}

func TestPendingReconcilerSkipsFreshDonations(t *testing.T) {
	module := donationledger.NewInMemoryModule(fakeCampaigns{}, nil, nil)
	pendingDonation(t, module, "idem-recon-2", "ref-recon-2")

	fetcher := &fakeFetcher{result: providerports.StatusResult{Status: providerports.StatusSucceeded}}
	reconciler := workers.PendingReconciler{
		Service:    module.Service,
		Repo:       module.Store,
		Provider:   fetcher,
		StaleAfter: 15 * time.Minute,
	}
	if err := reconciler.RunOnce(context.Background()); err != nil {
		t.Fatalf("reconciler run failed: %v", err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected fresh pending donation untouched, got %d fetches", fetcher.calls)
	}
}
