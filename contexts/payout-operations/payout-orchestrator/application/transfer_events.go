package application

import (
	"context"
	"strings"

	providerports "chainraise/contexts/payments-core/provider-gateway/ports"
	"chainraise/contexts/payout-operations/payout-orchestrator/domain/entities"
	"chainraise/contexts/payout-operations/payout-orchestrator/ports"
)

// ApplyTransferEvent reconciles a provider settlement notification
// against the payout it references. The returned bool reports whether any
// payout matched; a duplicate confirmation for an already-completed
// payout is a no-op.
func (s Service) ApplyTransferEvent(ctx context.Context, event ports.TransferEvent) (bool, error) {
	logger := ResolveLogger(s.Logger)

	payout, found, err := s.Payouts.FindByTransactionReference(ctx, event.Provider, strings.TrimSpace(event.Reference))
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	switch event.Status {
	case providerports.StatusSucceeded:
		if payout.Status == entities.PayoutStatusCompleted {
			logger.Info("duplicate settlement confirmation ignored",
				"event", "payout_event_replayed",
				"module", "payout-operations/payout-orchestrator",
				"layer", "application",
				"payout_id", payout.PayoutID,
			)
			return true, nil
		}
		if !entities.CanTransition(payout.Status, entities.PayoutStatusCompleted) {
			logger.Warn("settlement confirmation for payout in unexpected state",
				"event", "payout_event_unexpected_state",
				"module", "payout-operations/payout-orchestrator",
				"layer", "application",
				"payout_id", payout.PayoutID,
				"status", string(payout.Status),
			)
			return true, nil
		}
		if _, err := s.markCompleted(ctx, payout, "settlement_confirmed", "provider:"+event.Provider); err != nil {
			return true, err
		}
		return true, nil

	case providerports.StatusFailed:
		if payout.Status == entities.PayoutStatusFailed {
			return true, nil
		}
		if !entities.CanTransition(payout.Status, entities.PayoutStatusFailed) {
			logger.Warn("settlement failure for payout in unexpected state",
				"event", "payout_event_unexpected_state",
				"module", "payout-operations/payout-orchestrator",
				"layer", "application",
				"payout_id", payout.PayoutID,
				"status", string(payout.Status),
			)
			return true, nil
		}
		reason := event.ProviderError
		if strings.TrimSpace(reason) == "" {
			reason = "transfer failed"
			if event.ProviderStatus != "" {
				reason = "transfer " + event.ProviderStatus
			}
		}
		if _, err := s.markFailed(ctx, payout, "settlement_failed", "provider:"+event.Provider, reason); err != nil {
			return true, err
		}
		return true, nil

	default:
		logger.Info("non-terminal transfer event recorded",
			"event", "payout_event_pending",
			"module", "payout-operations/payout-orchestrator",
			"layer", "application",
			"payout_id", payout.PayoutID,
			"provider_status", event.ProviderStatus,
		)
		return true, nil
	}
}
