package application

import (
	"context"
	"encoding/json"
	"time"

	"chainraise/contexts/payout-operations/payout-orchestrator/domain/entities"
	"chainraise/contexts/payout-operations/payout-orchestrator/ports"
)

func (s Service) appendPayoutOutbox(ctx context.Context, eventType string, payout entities.Payout, occurredAt time.Time) {
	if s.Outbox == nil {
		return
	}
	logger := ResolveLogger(s.Logger)

	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		logger.Error("payout event id generation failed",
			"event", "payout_outbox_append_failed",
			"module", "payout-operations/payout-orchestrator",
			"layer", "application",
			"payout_id", payout.PayoutID,
			"error", err.Error(),
		)
		return
	}
	data, err := json.Marshal(map[string]any{
		"payout_id":     payout.PayoutID,
		"family":        string(payout.Family),
		"campaign_id":   payout.CampaignID,
		"referrer_id":   payout.ReferrerID,
		"requester_id":  payout.RequesterID,
		"amount":        payout.Amount,
		"net_amount":    payout.NetAmount,
		"currency":      payout.Currency,
		"status":        string(payout.Status),
		"status_reason": payout.StatusReason,
	})
	if err != nil {
		return
	}
	if err := s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "payout-orchestrator",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "campaign_id",
		PartitionKey:     payout.CampaignID,
		Data:             data,
	}); err != nil {
		logger.Error("payout outbox append failed",
			"event", "payout_outbox_append_failed",
			"module", "payout-operations/payout-orchestrator",
			"layer", "application",
			"payout_id", payout.PayoutID,
			"error", err.Error(),
		)
	}
}

// audit records one orchestrator action. Audit writes must never block a
// state transition; a failure is logged and dropped.
func (s Service) audit(
	ctx context.Context,
	payout entities.Payout,
	action string,
	from entities.PayoutStatus,
	to entities.PayoutStatus,
	actorID string,
	reason string,
) {
	if s.Audit == nil {
		return
	}
	logger := ResolveLogger(s.Logger)

	auditID, err := s.IDGen.NewID(ctx)
	if err != nil {
		logger.Error("audit id generation failed",
			"event", "payout_audit_append_failed",
			"module", "payout-operations/payout-orchestrator",
			"layer", "application",
			"payout_id", payout.PayoutID,
			"error", err.Error(),
		)
		return
	}
	if err := s.Audit.AppendAudit(ctx, entities.AuditRecord{
		AuditID:    auditID,
		PayoutID:   payout.PayoutID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Reason:     reason,
		CreatedAt:  s.now(),
	}); err != nil {
		logger.Error("audit append failed",
			"event", "payout_audit_append_failed",
			"module", "payout-operations/payout-orchestrator",
			"layer", "application",
			"payout_id", payout.PayoutID,
			"action", action,
			"error", err.Error(),
		)
	}
}

func (s Service) logTransition(payout entities.Payout, event string) {
	ResolveLogger(s.Logger).Info("payout state changed",
		"event", event,
		"module", "payout-operations/payout-orchestrator",
		"layer", "application",
		"payout_id", payout.PayoutID,
		"family", string(payout.Family),
		"status", string(payout.Status),
		"status_reason", payout.StatusReason,
	)
}
