package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"chainraise/contexts/payments-core/donation-ledger/domain/entities"
	domainerrors "chainraise/contexts/payments-core/donation-ledger/domain/errors"
	"chainraise/contexts/payments-core/donation-ledger/ports"
	providerports "chainraise/contexts/payments-core/provider-gateway/ports"
)

const defaultRetryCap = 3

type Service struct {
	Repo           ports.DonationRepository
	Campaigns      ports.CampaignGateway
	Commissions    ports.CommissionAccruer
	Converter      ports.CurrencyConverter
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	RetryCap       int
	Logger         *slog.Logger
}

type CreateDonationInput struct {
	CampaignID        string
	DonorID           string
	ReferrerID        string
	Amount            float64
	Currency          string
	PaymentMethod     string
	ProviderReference string
}

// CreateDonation records a checkout initiation as a pending ledger row.
// Replaying the same idempotency key returns the original donation.
func (s Service) CreateDonation(
	ctx context.Context,
	idempotencyKey string,
	input CreateDonationInput,
) (entities.Donation, bool, error) {
	logger := ResolveLogger(s.Logger)
	if strings.TrimSpace(idempotencyKey) == "" {
		return entities.Donation{}, false, domainerrors.ErrIdempotencyKeyRequired
	}
	if !isValidCreateInput(input) {
		return entities.Donation{}, false, domainerrors.ErrInvalidDonationInput
	}

	now := s.now()
	requestHash := hashPayload(map[string]any{
		"campaign_id":        strings.TrimSpace(input.CampaignID),
		"donor_id":           strings.TrimSpace(input.DonorID),
		"referrer_id":        strings.TrimSpace(input.ReferrerID),
		"amount":             round2(input.Amount),
		"currency":           strings.ToUpper(strings.TrimSpace(input.Currency)),
		"payment_method":     strings.ToLower(strings.TrimSpace(input.PaymentMethod)),
		"provider_reference": strings.TrimSpace(input.ProviderReference),
	})

	record, found, err := s.Idempotency.GetRecord(ctx, strings.TrimSpace(idempotencyKey), now)
	if err != nil {
		return entities.Donation{}, false, err
	}
	if found {
		if record.RequestHash != requestHash {
			return entities.Donation{}, false, domainerrors.ErrIdempotencyKeyConflict
		}
		var replayed entities.Donation
		if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
			return entities.Donation{}, false, err
		}
		return replayed, true, nil
	}

	funding, err := s.Campaigns.GetFunding(ctx, strings.TrimSpace(input.CampaignID))
	if err != nil {
		return entities.Donation{}, false, err
	}
	if !funding.Accepting {
		return entities.Donation{}, false, domainerrors.ErrCampaignNotAccepting
	}

	donationID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Donation{}, false, err
	}

	donation := entities.Donation{
		DonationID:        donationID,
		CampaignID:        strings.TrimSpace(input.CampaignID),
		DonorID:           strings.TrimSpace(input.DonorID),
		ReferrerID:        strings.TrimSpace(input.ReferrerID),
		Amount:            round2(input.Amount),
		Currency:          strings.ToUpper(strings.TrimSpace(input.Currency)),
		PaymentMethod:     strings.ToLower(strings.TrimSpace(input.PaymentMethod)),
		ProviderReference: strings.TrimSpace(input.ProviderReference),
		PaymentStatus:     entities.PaymentStatusPending,
		CreatedAt:         now,
		StatusUpdatedAt:   now,
	}
	if err := s.Repo.CreateDonation(ctx, donation); err != nil {
		return entities.Donation{}, false, err
	}

	serialized, err := json.Marshal(donation)
	if err != nil {
		return entities.Donation{}, false, err
	}
	if err := s.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             strings.TrimSpace(idempotencyKey),
		RequestHash:     requestHash,
		ResponsePayload: serialized,
		ExpiresAt:       now.Add(s.idempotencyTTL()),
	}); err != nil {
		return entities.Donation{}, false, err
	}

	logger.Info("donation created",
		"event", "donation_created",
		"module", "payments-core/donation-ledger",
		"layer", "application",
		"donation_id", donation.DonationID,
		"campaign_id", donation.CampaignID,
		"payment_method", donation.PaymentMethod,
	)
	return donation, false, nil
}

// ApplyProviderEvent drives the donation state machine from a normalized
// provider notification. The returned bool reports whether any ledger row
// matched the reference, so ingestion can keep probing other targets.
// Applying the same terminal event twice is a no-op, not an error.
func (s Service) ApplyProviderEvent(ctx context.Context, event ports.ProviderEvent) (entities.Donation, bool, error) {
	logger := ResolveLogger(s.Logger)
	donation, found, err := s.Repo.FindByProviderReference(ctx, event.Provider, strings.TrimSpace(event.Reference))
	if err != nil {
		return entities.Donation{}, false, err
	}
	if !found {
		return entities.Donation{}, false, nil
	}

	now := s.now()

	// Credential failures against the provider API say nothing about the
	// payment itself; record the diagnostic and leave the status alone.
	if event.Status == providerports.StatusAuthError {
		donation.ProviderStatus = string(providerports.StatusAuthError)
		donation.ProviderError = event.ProviderError
		donation.StatusUpdatedAt = now
		if err := s.Repo.UpdateDonation(ctx, donation); err != nil {
			return entities.Donation{}, true, err
		}
		logger.Warn("provider auth error recorded",
			"event", "donation_provider_auth_error",
			"module", "payments-core/donation-ledger",
			"layer", "application",
			"donation_id", donation.DonationID,
			"provider", event.Provider,
		)
		return donation, true, nil
	}

	target := targetStatus(event.Status)
	if !entities.CanTransition(donation.PaymentStatus, target) {
		return s.applyTerminalDiagnostics(ctx, donation, event, target, now)
	}

	switch target {
	case entities.PaymentStatusCompleted:
		return s.complete(ctx, donation, event, now)
	case entities.PaymentStatusFailed:
		return s.fail(ctx, donation, event, now)
	default:
		donation.ProviderStatus = event.ProviderStatus
		donation.StatusUpdatedAt = now
		if err := s.Repo.UpdateDonation(ctx, donation); err != nil {
			return entities.Donation{}, true, err
		}
		return donation, true, nil
	}
}

func (s Service) complete(
	ctx context.Context,
	donation entities.Donation,
	event ports.ProviderEvent,
	now time.Time,
) (entities.Donation, bool, error) {
	logger := ResolveLogger(s.Logger)
	funding, err := s.Campaigns.GetFunding(ctx, donation.CampaignID)
	if err != nil {
		return entities.Donation{}, true, err
	}

	if funding.Currency != "" && donation.Currency != funding.Currency && s.Converter != nil {
		converted := round2(s.Converter.Convert(donation.Amount, donation.Currency, funding.Currency))
		donation.ConvertedAmount = converted
		donation.ConvertedCurrency = funding.Currency
		if donation.Amount > 0 {
			donation.ConversionRate = round4(converted / donation.Amount)
		}
	}

	donation.PaymentStatus = entities.PaymentStatusCompleted
	donation.ProviderStatus = event.ProviderStatus
	donation.ProcessedAt = &now
	donation.StatusUpdatedAt = now

	// The completed row must be durable before aggregation or commission
	// accrual read the ledger.
	if err := s.Repo.UpdateDonation(ctx, donation); err != nil {
		return entities.Donation{}, true, err
	}

	logger.Info("donation completed",
		"event", "donation_completed",
		"module", "payments-core/donation-ledger",
		"layer", "application",
		"donation_id", donation.DonationID,
		"campaign_id", donation.CampaignID,
		"effective_amount", donation.EffectiveAmount(),
	)

	if _, err := s.RecomputeCampaignAmount(ctx, donation.CampaignID); err != nil {
		logger.Error("campaign balance recompute failed",
			"event", "donation_balance_recompute_failed",
			"module", "payments-core/donation-ledger",
			"layer", "application",
			"campaign_id", donation.CampaignID,
			"error", err.Error(),
		)
	}

	if donation.ReferrerID != "" && s.Commissions != nil {
		if err := s.Commissions.AccrueCommission(ctx, ports.AccrualInput{
			DonationID: donation.DonationID,
			CampaignID: donation.CampaignID,
			DonorID:    donation.DonorID,
			ReferrerID: donation.ReferrerID,
			Amount:     donation.EffectiveAmount(),
		}); err != nil {
			logger.Error("commission accrual failed",
				"event", "donation_commission_accrual_failed",
				"module", "payments-core/donation-ledger",
				"layer", "application",
				"donation_id", donation.DonationID,
				"referrer_id", donation.ReferrerID,
				"error", err.Error(),
			)
		}
	}

	s.appendDonationOutbox(ctx, "donation_succeeded", donation, funding.OwnerID, now)
	return donation, true, nil
}

func (s Service) fail(
	ctx context.Context,
	donation entities.Donation,
	event ports.ProviderEvent,
	now time.Time,
) (entities.Donation, bool, error) {
	logger := ResolveLogger(s.Logger)

	donation.PaymentStatus = entities.PaymentStatusFailed
	donation.RetryAttempts++
	donation.FailureReason = failureReason(event)
	if donation.RetryAttempts > s.retryCap() {
		donation.FailureReason = entities.MaxRetriesReason
	}
	donation.ProviderStatus = event.ProviderStatus
	donation.ProviderError = event.ProviderError
	donation.StatusUpdatedAt = now

	if err := s.Repo.UpdateDonation(ctx, donation); err != nil {
		return entities.Donation{}, true, err
	}

	logger.Info("donation failed",
		"event", "donation_failed",
		"module", "payments-core/donation-ledger",
		"layer", "application",
		"donation_id", donation.DonationID,
		"retry_attempts", donation.RetryAttempts,
		"failure_reason", donation.FailureReason,
	)

	s.appendDonationOutbox(ctx, "donation_failed", donation, "", now)
	return donation, true, nil
}

// applyTerminalDiagnostics handles events arriving after a terminal state.
// A replayed success is a pure no-op; repeated failure reports keep
// counting toward the retry cap; anything else refreshes diagnostics only.
func (s Service) applyTerminalDiagnostics(
	ctx context.Context,
	donation entities.Donation,
	event ports.ProviderEvent,
	target entities.PaymentStatus,
	now time.Time,
) (entities.Donation, bool, error) {
	logger := ResolveLogger(s.Logger)

	if donation.PaymentStatus == entities.PaymentStatusCompleted && target == entities.PaymentStatusCompleted {
		logger.Info("duplicate completion event ignored",
			"event", "donation_event_replayed",
			"module", "payments-core/donation-ledger",
			"layer", "application",
			"donation_id", donation.DonationID,
		)
		return donation, true, nil
	}

	if donation.PaymentStatus == entities.PaymentStatusFailed && target == entities.PaymentStatusFailed {
		donation.RetryAttempts++
		donation.FailureReason = failureReason(event)
		if donation.RetryAttempts > s.retryCap() {
			donation.FailureReason = entities.MaxRetriesReason
		}
	}

	donation.ProviderStatus = event.ProviderStatus
	if event.ProviderError != "" {
		donation.ProviderError = event.ProviderError
	}
	donation.StatusUpdatedAt = now
	if err := s.Repo.UpdateDonation(ctx, donation); err != nil {
		return entities.Donation{}, true, err
	}
	return donation, true, nil
}

// RecomputeCampaignAmount derives the campaign balance from the ledger.
// Always recompute-from-source: a missed or duplicated webhook self-heals
// on the next trigger instead of drifting.
func (s Service) RecomputeCampaignAmount(ctx context.Context, campaignID string) (float64, error) {
	completed, err := s.Repo.ListCompletedByCampaign(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, donation := range completed {
		total += donation.EffectiveAmount()
	}
	total = round2(total)

	if err := s.Campaigns.ApplyBalance(ctx, strings.TrimSpace(campaignID), total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s Service) GetDonation(ctx context.Context, donationID string) (entities.Donation, error) {
	if strings.TrimSpace(donationID) == "" {
		return entities.Donation{}, domainerrors.ErrInvalidDonationInput
	}
	return s.Repo.GetDonation(ctx, strings.TrimSpace(donationID))
}

func (s Service) ListByCampaign(ctx context.Context, campaignID string) ([]entities.Donation, error) {
	if strings.TrimSpace(campaignID) == "" {
		return nil, domainerrors.ErrInvalidDonationInput
	}
	return s.Repo.ListByCampaign(ctx, strings.TrimSpace(campaignID))
}

func (s Service) appendDonationOutbox(
	ctx context.Context,
	eventType string,
	donation entities.Donation,
	ownerID string,
	occurredAt time.Time,
) {
	if s.Outbox == nil {
		return
	}
	logger := ResolveLogger(s.Logger)

	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		logger.Error("notification event id generation failed",
			"event", "donation_outbox_append_failed",
			"module", "payments-core/donation-ledger",
			"layer", "application",
			"donation_id", donation.DonationID,
			"error", err.Error(),
		)
		return
	}
	data, err := json.Marshal(map[string]any{
		"donation_id":    donation.DonationID,
		"campaign_id":    donation.CampaignID,
		"donor_id":       donation.DonorID,
		"owner_id":       ownerID,
		"amount":         donation.Amount,
		"currency":       donation.Currency,
		"payment_status": string(donation.PaymentStatus),
		"failure_reason": donation.FailureReason,
	})
	if err != nil {
		return
	}
	// Notification delivery is fire-and-forget; an outbox failure is an
	// operator problem, never a webhook failure.
	if err := s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "donation-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "campaign_id",
		PartitionKey:     donation.CampaignID,
		Data:             data,
	}); err != nil {
		logger.Error("notification outbox append failed",
			"event", "donation_outbox_append_failed",
			"module", "payments-core/donation-ledger",
			"layer", "application",
			"donation_id", donation.DonationID,
			"error", err.Error(),
		)
	}
}

func targetStatus(status providerports.TransactionStatus) entities.PaymentStatus {
	switch status {
	case providerports.StatusSucceeded:
		return entities.PaymentStatusCompleted
	case providerports.StatusFailed:
		return entities.PaymentStatusFailed
	default:
		return entities.PaymentStatusPending
	}
}

func failureReason(event ports.ProviderEvent) string {
	if strings.TrimSpace(event.ProviderError) != "" {
		return event.ProviderError
	}
	if strings.TrimSpace(event.ProviderStatus) != "" {
		return "provider reported " + event.ProviderStatus
	}
	return "payment failed"
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) retryCap() int {
	if s.RetryCap <= 0 {
		return defaultRetryCap
	}
	return s.RetryCap
}

func isValidCreateInput(input CreateDonationInput) bool {
	return strings.TrimSpace(input.CampaignID) != "" &&
		strings.TrimSpace(input.DonorID) != "" &&
		strings.TrimSpace(input.PaymentMethod) != "" &&
		strings.TrimSpace(input.ProviderReference) != "" &&
		strings.TrimSpace(input.Currency) != "" &&
		input.Amount > 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func hashPayload(payload map[string]any) string {
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
