package webhookgateway_test

import (
	"context"
	"errors"
	"testing"

	ledgerports "chainraise/contexts/payments-core/donation-ledger/ports"
	providergateway "chainraise/contexts/payments-core/provider-gateway"
	providerports "chainraise/contexts/payments-core/provider-gateway/ports"
	webhookgateway "chainraise/contexts/payments-core/webhook-gateway"
	"chainraise/contexts/payments-core/webhook-gateway/application"
	domainerrors "chainraise/contexts/payments-core/webhook-gateway/domain/errors"
)

type scriptedAdapter struct {
	tag        string
	validSig   bool
	parsed     providerports.WebhookEvent
	parseError error
}

func (a scriptedAdapter) Tag() string { return a.tag }

func (a scriptedAdapter) VerifySignature([]byte, string) bool { return a.validSig }

func (a scriptedAdapter) ParseWebhookEvent([]byte) (providerports.WebhookEvent, error) {
	return a.parsed, a.parseError
}

func (a scriptedAdapter) FetchStatus(context.Context, string) (providerports.StatusResult, error) {
	return providerports.StatusResult{}, nil
}

func (a scriptedAdapter) InitiateTransfer(context.Context, providerports.TransferRequest) (providerports.TransferResult, error) {
	return providerports.TransferResult{}, nil
}

func (a scriptedAdapter) FeeSchedule() providerports.FeeSchedule {
	return providerports.FeeSchedule{}
}

type recordingTarget struct {
	match  bool
	events []ledgerports.ProviderEvent
}

func (r *recordingTarget) apply(event ledgerports.ProviderEvent) (bool, error) {
	r.events = append(r.events, event)
	return r.match, nil
}

func (r *recordingTarget) ApplyDonationEvent(_ context.Context, event ledgerports.ProviderEvent) (bool, error) {
	return r.apply(event)
}

func (r *recordingTarget) ApplyCharityDonationEvent(_ context.Context, event ledgerports.ProviderEvent) (bool, error) {
	return r.apply(event)
}

func (r *recordingTarget) ApplyTransferEvent(_ context.Context, event ledgerports.ProviderEvent) (bool, error) {
	return r.apply(event)
}

func donationEvent(reference string) providerports.WebhookEvent {
	return providerports.WebhookEvent{
		Kind:      providerports.EventKindDonation,
		Reference: reference,
		Status:    providerports.StatusSucceeded,
	}
}

func TestIngestRejectsUnknownProvider(t *testing.T) {
	module := webhookgateway.NewModule(webhookgateway.Dependencies{
		Providers: providergateway.NewRegistry(),
	})

	_, err := module.Ingest.Ingest(context.Background(), "flutterwave", []byte("{}"), "sig")
	if !errors.Is(err, domainerrors.ErrUnknownProvider) {
		t.Fatalf("expected unknown provider, got %v", err)
	}
}

func TestIngestRejectsBadSignatureWithoutSideEffects(t *testing.T) {
	donations := &recordingTarget{match: true}
	module := webhookgateway.NewModule(webhookgateway.Dependencies{
		Providers: providergateway.NewRegistry(scriptedAdapter{
			tag:      "paystack",
			validSig: false,
			parsed:   donationEvent("ref-1"),
		}),
		Donations: donations,
	})

	_, err := module.Ingest.Ingest(context.Background(), "paystack", []byte("{}"), "bad-sig")
	if !errors.Is(err, domainerrors.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
	if len(donations.events) != 0 {
		t.Fatalf("expected no target calls on bad signature, got %d", len(donations.events))
	}
}

func TestIngestDropsUnparseablePayload(t *testing.T) {
	module := webhookgateway.NewModule(webhookgateway.Dependencies{
		Providers: providergateway.NewRegistry(scriptedAdapter{
			tag:        "paystack",
			validSig:   true,
			parseError: errors.New("not json"),
		}),
	})

	result, err := module.Ingest.Ingest(context.Background(), "paystack", []byte("<xml/>"), "sig")
	if err != nil {
		t.Fatalf("expected unparseable payload to be dropped, got %v", err)
	}
	if result.Target != application.TargetDropped {
		t.Fatalf("expected dropped target, got %s", result.Target)
	}
}

func TestIngestRoutesDonationToLedgerFirst(t *testing.T) {
	donations := &recordingTarget{match: true}
	charity := &recordingTarget{match: true}
	module := webhookgateway.NewModule(webhookgateway.Dependencies{
		Providers: providergateway.NewRegistry(scriptedAdapter{
			tag:      "paystack",
			validSig: true,
			parsed:   donationEvent("ref-2"),
		}),
		Donations: donations,
		Charity:   charity,
	})

	result, err := module.Ingest.Ingest(context.Background(), "paystack", []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Target != application.TargetCampaignDonation {
		t.Fatalf("expected campaign donation target, got %s", result.Target)
	}
	if len(donations.events) != 1 || len(charity.events) != 0 {
		t.Fatalf("expected ledger probed first and charity skipped, got ledger=%d charity=%d", len(donations.events), len(charity.events))
	}
	if donations.events[0].Provider != "paystack" || donations.events[0].Reference != "ref-2" {
		t.Fatalf("unexpected routed event: %+v", donations.events[0])
	}
}

func TestIngestFallsThroughToCharity(t *testing.T) {
	donations := &recordingTarget{match: false}
	charity := &recordingTarget{match: true}
	module := webhookgateway.NewModule(webhookgateway.Dependencies{
		Providers: providergateway.NewRegistry(scriptedAdapter{
			tag:      "paystack",
			validSig: true,
			parsed:   donationEvent("ref-3"),
		}),
		Donations: donations,
		Charity:   charity,
	})

	result, err := module.Ingest.Ingest(context.Background(), "paystack", []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Target != application.TargetCharityDonation {
		t.Fatalf("expected charity donation target, got %s", result.Target)
	}
	if len(charity.events) != 1 {
		t.Fatalf("expected charity probed, got %d", len(charity.events))
	}
}

func TestIngestDropsUnmatchedDonation(t *testing.T) {
	donations := &recordingTarget{match: false}
	module := webhookgateway.NewModule(webhookgateway.Dependencies{
		Providers: providergateway.NewRegistry(scriptedAdapter{
			tag:      "stripe",
			validSig: true,
			parsed:   donationEvent("ref-4"),
		}),
		Donations: donations,
	})

	result, err := module.Ingest.Ingest(context.Background(), "stripe", []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Target != application.TargetDropped {
		t.Fatalf("expected unmatched donation dropped, got %s", result.Target)
	}
}

func TestIngestRoutesTransferEvents(t *testing.T) {
	transfers := &recordingTarget{match: true}
	module := webhookgateway.NewModule(webhookgateway.Dependencies{
		Providers: providergateway.NewRegistry(scriptedAdapter{
			tag:      "paystack",
			validSig: true,
			parsed: providerports.WebhookEvent{
				Kind:      providerports.EventKindTransfer,
				Reference: "txn-5",
				Status:    providerports.StatusSucceeded,
			},
		}),
		Transfers: transfers,
	})

	result, err := module.Ingest.Ingest(context.Background(), "paystack", []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Target != application.TargetTransfer {
		t.Fatalf("expected transfer target, got %s", result.Target)
	}
	if len(transfers.events) != 1 || transfers.events[0].Reference != "txn-5" {
		t.Fatalf("unexpected transfer routing: %+v", transfers.events)
	}
}

func TestIngestDropsUnknownEventKind(t *testing.T) {
	donations := &recordingTarget{match: true}
	module := webhookgateway.NewModule(webhookgateway.Dependencies{
		Providers: providergateway.NewRegistry(scriptedAdapter{
			tag:      "paystack",
			validSig: true,
			parsed: providerports.WebhookEvent{
				Kind:      providerports.EventKindUnknown,
				Reference: "ref-6",
			},
		}),
		Donations: donations,
	})

	result, err := module.Ingest.Ingest(context.Background(), "paystack", []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Target != application.TargetDropped {
		t.Fatalf("expected unknown kind dropped, got %s", result.Target)
	}
	if len(donations.events) != 0 {
		t.Fatalf("expected no donation probe for unknown kind, got %d", len(donations.events))
	}
}
