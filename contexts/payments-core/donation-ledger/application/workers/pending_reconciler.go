package workers

import (
	"context"
	"log/slog"
	"time"

	application "chainraise/contexts/payments-core/donation-ledger/application"
	"chainraise/contexts/payments-core/donation-ledger/ports"
)

// PendingReconciler re-queries providers for donations stuck in pending
// longer than StaleAfter and feeds the authoritative answer back through
// the same state machine the webhook path uses.
type PendingReconciler struct {
	Service    application.Service
	Repo       ports.DonationRepository
	Provider   ports.ProviderStatusFetcher
	Clock      ports.Clock
	StaleAfter time.Duration
	BatchSize  int
	Logger     *slog.Logger
}

func (r PendingReconciler) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 50
	}
	staleAfter := r.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	stale, err := r.Repo.ListStalePending(ctx, now.Add(-staleAfter), limit)
	if err != nil {
		logger.Error("stale pending list failed",
			"event", "donation_reconcile_list_failed",
			"module", "payments-core/donation-ledger",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	reconciled := 0
	for _, donation := range stale {
		result, err := r.Provider.FetchStatus(ctx, donation.PaymentMethod, donation.ProviderReference)
		if err != nil {
			logger.Error("provider status fetch failed",
				"event", "donation_reconcile_fetch_failed",
				"module", "payments-core/donation-ledger",
				"layer", "worker",
				"donation_id", donation.DonationID,
				"provider", donation.PaymentMethod,
				"error", err.Error(),
			)
			continue
		}

		if _, _, err := r.Service.ApplyProviderEvent(ctx, ports.ProviderEvent{
			Provider:       donation.PaymentMethod,
			Reference:      donation.ProviderReference,
			Status:         result.Status,
			ProviderStatus: result.ProviderStatus,
			ProviderError:  result.ProviderError,
		}); err != nil {
			logger.Error("reconcile apply failed",
				"event", "donation_reconcile_apply_failed",
				"module", "payments-core/donation-ledger",
				"layer", "worker",
				"donation_id", donation.DonationID,
				"error", err.Error(),
			)
			continue
		}
		reconciled++
	}

	if len(stale) > 0 {
		logger.Info("pending reconcile cycle completed",
			"event", "donation_reconcile_completed",
			"module", "payments-core/donation-ledger",
			"layer", "worker",
			"scanned_count", len(stale),
			"reconciled_count", reconciled,
		)
	}
	return nil
}
