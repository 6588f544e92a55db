package application

import (
	"context"
	"log/slog"

	ledgerports "chainraise/contexts/payments-core/donation-ledger/ports"
	providerports "chainraise/contexts/payments-core/provider-gateway/ports"
	domainerrors "chainraise/contexts/payments-core/webhook-gateway/domain/errors"
	"chainraise/contexts/payments-core/webhook-gateway/ports"
)

// EventTarget names where an ingested event was routed.
type EventTarget string

const (
	TargetCampaignDonation EventTarget = "campaign_donation"
	TargetCharityDonation  EventTarget = "charity_donation"
	TargetTransfer         EventTarget = "transfer"
	TargetDropped          EventTarget = "dropped"
)

type IngestResult struct {
	Target    EventTarget
	EventKind providerports.EventKind
	Reference string
}

type Service struct {
	Providers ports.ProviderResolver
	Donations ports.DonationTarget
	Charity   ports.CharityDonationTarget
	Transfers ports.TransferTarget
	Logger    *slog.Logger
}

// Ingest verifies and classifies one provider callback, then routes it to
// its event target. The target is resolved exactly once here; a donation
// reference probes the campaign ledger first, then the charity
// collaborator, and an unmatched or unknown event is dropped with a log
// line rather than retried.
func (s Service) Ingest(
	ctx context.Context,
	providerTag string,
	rawBody []byte,
	signatureHeader string,
) (IngestResult, error) {
	logger := resolveLogger(s.Logger)

	adapter, err := s.Providers.Resolve(providerTag)
	if err != nil {
		return IngestResult{}, domainerrors.ErrUnknownProvider
	}
	if !adapter.VerifySignature(rawBody, signatureHeader) {
		logger.Warn("webhook signature rejected",
			"event", "webhook_signature_rejected",
			"module", "payments-core/webhook-gateway",
			"layer", "application",
			"provider", providerTag,
		)
		return IngestResult{}, domainerrors.ErrInvalidSignature
	}

	parsed, err := adapter.ParseWebhookEvent(rawBody)
	if err != nil {
		logger.Warn("webhook payload unparseable",
			"event", "webhook_payload_unparseable",
			"module", "payments-core/webhook-gateway",
			"layer", "application",
			"provider", providerTag,
			"error", err.Error(),
		)
		return IngestResult{Target: TargetDropped, EventKind: providerports.EventKindUnknown}, nil
	}

	event := ledgerports.ProviderEvent{
		Provider:       providerTag,
		Reference:      parsed.Reference,
		Status:         parsed.Status,
		ProviderStatus: parsed.ProviderStatus,
		ProviderError:  parsed.ProviderError,
	}

	switch parsed.Kind {
	case providerports.EventKindDonation:
		return s.routeDonation(ctx, event, parsed.Kind)
	case providerports.EventKindTransfer:
		return s.routeTransfer(ctx, event, parsed.Kind)
	default:
		logger.Info("webhook event dropped",
			"event", "webhook_event_dropped",
			"module", "payments-core/webhook-gateway",
			"layer", "application",
			"provider", providerTag,
			"reference", parsed.Reference,
		)
		return IngestResult{Target: TargetDropped, EventKind: parsed.Kind, Reference: parsed.Reference}, nil
	}
}

func (s Service) routeDonation(
	ctx context.Context,
	event ledgerports.ProviderEvent,
	kind providerports.EventKind,
) (IngestResult, error) {
	logger := resolveLogger(s.Logger)

	matched, err := s.Donations.ApplyDonationEvent(ctx, event)
	if err != nil {
		return IngestResult{}, err
	}
	if matched {
		return IngestResult{Target: TargetCampaignDonation, EventKind: kind, Reference: event.Reference}, nil
	}

	if s.Charity != nil {
		matched, err = s.Charity.ApplyCharityDonationEvent(ctx, event)
		if err != nil {
			return IngestResult{}, err
		}
		if matched {
			return IngestResult{Target: TargetCharityDonation, EventKind: kind, Reference: event.Reference}, nil
		}
	}

	logger.Info("donation event matched no record",
		"event", "webhook_event_unmatched",
		"module", "payments-core/webhook-gateway",
		"layer", "application",
		"provider", event.Provider,
		"reference", event.Reference,
	)
	return IngestResult{Target: TargetDropped, EventKind: kind, Reference: event.Reference}, nil
}

func (s Service) routeTransfer(
	ctx context.Context,
	event ledgerports.ProviderEvent,
	kind providerports.EventKind,
) (IngestResult, error) {
	logger := resolveLogger(s.Logger)

	matched, err := s.Transfers.ApplyTransferEvent(ctx, event)
	if err != nil {
		return IngestResult{}, err
	}
	if !matched {
		logger.Info("transfer event matched no payout",
			"event", "webhook_event_unmatched",
			"module", "payments-core/webhook-gateway",
			"layer", "application",
			"provider", event.Provider,
			"reference", event.Reference,
		)
		return IngestResult{Target: TargetDropped, EventKind: kind, Reference: event.Reference}, nil
	}
	return IngestResult{Target: TargetTransfer, EventKind: kind, Reference: event.Reference}, nil
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
