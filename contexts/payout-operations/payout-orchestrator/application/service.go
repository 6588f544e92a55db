package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"chainraise/contexts/payout-operations/payout-orchestrator/domain/entities"
	domainerrors "chainraise/contexts/payout-operations/payout-orchestrator/domain/errors"
	"chainraise/contexts/payout-operations/payout-orchestrator/ports"
)

type Service struct {
	Payouts            ports.PayoutRepository
	Audit              ports.AuditRepository
	Settlement         ports.SettlementGateway
	Campaigns          ports.CampaignFinanceGateway
	Commissions        ports.CommissionLedgerGateway
	Reinvest           ports.ReinvestSink
	Outbox             ports.OutboxWriter
	Clock              ports.Clock
	IDGen              ports.IDGenerator
	PlatformFeePercent float64
	Logger             *slog.Logger
}

// RequestCampaignPayout opens a payout of a campaign's raised funds to
// its owner. The requested amount is the campaign's current balance; fee
// math happens at settlement, not here.
func (s Service) RequestCampaignPayout(ctx context.Context, campaignID string, requesterID string) (entities.Payout, error) {
	finance, err := s.Campaigns.GetFinance(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return entities.Payout{}, err
	}
	if finance.CurrentAmount <= 0 {
		return entities.Payout{}, domainerrors.ErrNothingToPayOut
	}

	payoutID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Payout{}, err
	}
	now := s.now()

	payout := entities.Payout{
		PayoutID:           payoutID,
		Family:             entities.PayoutFamilyCampaign,
		CampaignID:         finance.CampaignID,
		RequesterID:        strings.TrimSpace(requesterID),
		Amount:             finance.CurrentAmount,
		Currency:           finance.Currency,
		Destination:        entities.DestinationWithdraw,
		Provider:           finance.PayoutProvider,
		DestinationAccount: finance.SettlementAccount,
		Status:             entities.PayoutStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.Payouts.CreatePayout(ctx, payout); err != nil {
		return entities.Payout{}, err
	}

	s.audit(ctx, payout, "request", "", entities.PayoutStatusPending, payout.RequesterID, "")
	s.appendPayoutOutbox(ctx, "payout_requested", payout, now)
	s.logTransition(payout, "payout_requested")
	return payout, nil
}

// RequestCommissionPayout opens a payout of a referrer's unpaid accrued
// commission, either withdrawn through the provider or reinvested into
// the campaign. Accruals already settled by an earlier payout are never
// paid again.
func (s Service) RequestCommissionPayout(
	ctx context.Context,
	referrerID string,
	requesterID string,
	destination entities.PayoutDestination,
	provider string,
	destinationAccount string,
) (entities.Payout, error) {
	if destination != entities.DestinationWithdraw && destination != entities.DestinationReinvest {
		return entities.Payout{}, domainerrors.ErrInvalidPayoutInput
	}

	standing, err := s.Commissions.GetReferrerStanding(ctx, strings.TrimSpace(referrerID))
	if err != nil {
		return entities.Payout{}, err
	}
	unpaid, err := s.Commissions.UnpaidReferrerCommissionTotal(ctx, standing.ReferrerID)
	if err != nil {
		return entities.Payout{}, err
	}
	if unpaid <= 0 {
		return entities.Payout{}, domainerrors.ErrNothingToPayOut
	}
	if destination == entities.DestinationWithdraw && strings.TrimSpace(destinationAccount) == "" {
		return entities.Payout{}, domainerrors.ErrInvalidPayoutInput
	}

	finance, err := s.Campaigns.GetFinance(ctx, standing.CampaignID)
	if err != nil {
		return entities.Payout{}, err
	}

	payoutID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Payout{}, err
	}
	now := s.now()

	payout := entities.Payout{
		PayoutID:           payoutID,
		Family:             entities.PayoutFamilyCommission,
		CampaignID:         standing.CampaignID,
		ReferrerID:         standing.ReferrerID,
		RequesterID:        strings.TrimSpace(requesterID),
		Amount:             unpaid,
		Currency:           finance.Currency,
		Destination:        destination,
		Provider:           provider,
		DestinationAccount: strings.TrimSpace(destinationAccount),
		Status:             entities.PayoutStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.Payouts.CreatePayout(ctx, payout); err != nil {
		return entities.Payout{}, err
	}

	s.audit(ctx, payout, "request", "", entities.PayoutStatusPending, payout.RequesterID, "")
	s.appendPayoutOutbox(ctx, "payout_requested", payout, now)
	s.logTransition(payout, "payout_requested")
	return payout, nil
}

// Approve stamps the approver and immediately attempts settlement.
// Approval and settlement are coupled so an approved payout never sits
// unsettled: an adapter failure flips the record to failed in the same
// operation.
func (s Service) Approve(ctx context.Context, payoutID string, approverID string) (entities.Payout, error) {
	payout, err := s.Payouts.GetPayout(ctx, strings.TrimSpace(payoutID))
	if err != nil {
		return entities.Payout{}, err
	}
	if !entities.CanTransition(payout.Status, entities.PayoutStatusApproved) {
		return entities.Payout{}, domainerrors.ErrInvalidStateTransition
	}
	if payout.Status == entities.PayoutStatusCompleted && !payout.RetryableFrom() {
		return entities.Payout{}, domainerrors.ErrTransactionRefPresent
	}

	from := payout.Status
	now := s.now()
	payout.Status = entities.PayoutStatusApproved
	payout.ApprovedBy = strings.TrimSpace(approverID)
	payout.ApprovedAt = &now
	payout.StatusReason = ""
	payout.CompletedAt = nil
	payout.UpdatedAt = now
	if err := s.Payouts.UpdatePayout(ctx, payout); err != nil {
		return entities.Payout{}, err
	}
	s.audit(ctx, payout, "approve", from, entities.PayoutStatusApproved, approverID, "")

	return s.settle(ctx, payout, approverID)
}

// Reject declines a pending payout with a reason shown verbatim to the
// requester.
func (s Service) Reject(ctx context.Context, payoutID string, actorID string, reason string) (entities.Payout, error) {
	if strings.TrimSpace(reason) == "" {
		return entities.Payout{}, domainerrors.ErrReasonRequired
	}
	return s.transitionFromPending(ctx, payoutID, actorID, "reject", strings.TrimSpace(reason))
}

// Cancel lets the requester withdraw a payout while it is still pending.
func (s Service) Cancel(ctx context.Context, payoutID string, actorID string) (entities.Payout, error) {
	return s.transitionFromPending(ctx, payoutID, actorID, "cancel", "cancelled by requester")
}

func (s Service) transitionFromPending(
	ctx context.Context,
	payoutID string,
	actorID string,
	action string,
	reason string,
) (entities.Payout, error) {
	payout, err := s.Payouts.GetPayout(ctx, strings.TrimSpace(payoutID))
	if err != nil {
		return entities.Payout{}, err
	}
	if payout.Status != entities.PayoutStatusPending {
		return entities.Payout{}, domainerrors.ErrInvalidStateTransition
	}

	from := payout.Status
	now := s.now()
	payout.Status = entities.PayoutStatusRejected
	payout.StatusReason = reason
	payout.UpdatedAt = now
	if err := s.Payouts.UpdatePayout(ctx, payout); err != nil {
		return entities.Payout{}, err
	}

	s.audit(ctx, payout, action, from, entities.PayoutStatusRejected, actorID, reason)
	s.appendPayoutOutbox(ctx, "payout_rejected", payout, now)
	s.logTransition(payout, "payout_rejected")
	return payout, nil
}

// Process moves an approved payout into processing without re-running
// settlement, for operators tracking a transfer initiated out of band.
func (s Service) Process(ctx context.Context, payoutID string, actorID string) (entities.Payout, error) {
	payout, err := s.Payouts.GetPayout(ctx, strings.TrimSpace(payoutID))
	if err != nil {
		return entities.Payout{}, err
	}
	if !entities.CanTransition(payout.Status, entities.PayoutStatusProcessing) {
		return entities.Payout{}, domainerrors.ErrInvalidStateTransition
	}

	from := payout.Status
	payout.Status = entities.PayoutStatusProcessing
	payout.UpdatedAt = s.now()
	if err := s.Payouts.UpdatePayout(ctx, payout); err != nil {
		return entities.Payout{}, err
	}

	s.audit(ctx, payout, "process", from, entities.PayoutStatusProcessing, actorID, "")
	s.logTransition(payout, "payout_processing")
	return payout, nil
}

// Complete manually marks a payout settled. It is rejected unless a
// settlement transaction reference already exists, so a completion can
// never be fabricated for money that was never sent.
func (s Service) Complete(ctx context.Context, payoutID string, actorID string) (entities.Payout, error) {
	payout, err := s.Payouts.GetPayout(ctx, strings.TrimSpace(payoutID))
	if err != nil {
		return entities.Payout{}, err
	}
	if !entities.CanTransition(payout.Status, entities.PayoutStatusCompleted) {
		return entities.Payout{}, domainerrors.ErrInvalidStateTransition
	}
	if strings.TrimSpace(payout.TransactionReference) == "" {
		return entities.Payout{}, domainerrors.ErrMissingTransactionRef
	}
	return s.markCompleted(ctx, payout, "complete", actorID)
}

// Fail moves an approved or processing payout to failed with a reason.
func (s Service) Fail(ctx context.Context, payoutID string, actorID string, reason string) (entities.Payout, error) {
	if strings.TrimSpace(reason) == "" {
		return entities.Payout{}, domainerrors.ErrReasonRequired
	}
	payout, err := s.Payouts.GetPayout(ctx, strings.TrimSpace(payoutID))
	if err != nil {
		return entities.Payout{}, err
	}
	if !entities.CanTransition(payout.Status, entities.PayoutStatusFailed) {
		return entities.Payout{}, domainerrors.ErrInvalidStateTransition
	}
	return s.markFailed(ctx, payout, "fail", actorID, strings.TrimSpace(reason))
}

// Retry re-enters approved from failed, or from a completed record that
// never received a transaction reference. The prior failure reason and
// reference are cleared before settlement is re-attempted.
func (s Service) Retry(ctx context.Context, payoutID string, actorID string) (entities.Payout, error) {
	payout, err := s.Payouts.GetPayout(ctx, strings.TrimSpace(payoutID))
	if err != nil {
		return entities.Payout{}, err
	}
	if !payout.RetryableFrom() {
		return entities.Payout{}, domainerrors.ErrInvalidStateTransition
	}

	from := payout.Status
	now := s.now()
	payout.Status = entities.PayoutStatusApproved
	payout.StatusReason = ""
	payout.TransactionReference = ""
	payout.CompletedAt = nil
	payout.UpdatedAt = now
	if err := s.Payouts.UpdatePayout(ctx, payout); err != nil {
		return entities.Payout{}, err
	}
	s.audit(ctx, payout, "retry", from, entities.PayoutStatusApproved, actorID, "")

	return s.settle(ctx, payout, actorID)
}

// AddNotes attaches operator notes without touching the state machine.
func (s Service) AddNotes(ctx context.Context, payoutID string, actorID string, notes string) (entities.Payout, error) {
	payout, err := s.Payouts.GetPayout(ctx, strings.TrimSpace(payoutID))
	if err != nil {
		return entities.Payout{}, err
	}
	payout.Notes = strings.TrimSpace(notes)
	payout.UpdatedAt = s.now()
	if err := s.Payouts.UpdatePayout(ctx, payout); err != nil {
		return entities.Payout{}, err
	}
	s.audit(ctx, payout, "add_notes", payout.Status, payout.Status, actorID, "")
	return payout, nil
}

func (s Service) GetPayout(ctx context.Context, payoutID string) (entities.Payout, error) {
	if strings.TrimSpace(payoutID) == "" {
		return entities.Payout{}, domainerrors.ErrInvalidPayoutInput
	}
	return s.Payouts.GetPayout(ctx, strings.TrimSpace(payoutID))
}

func (s Service) ListPayouts(ctx context.Context, filter ports.PayoutFilter) ([]entities.Payout, error) {
	return s.Payouts.ListPayouts(ctx, filter)
}

func (s Service) AuditTrail(ctx context.Context, payoutID string) ([]entities.AuditRecord, error) {
	if strings.TrimSpace(payoutID) == "" {
		return nil, domainerrors.ErrInvalidPayoutInput
	}
	return s.Audit.ListByPayout(ctx, strings.TrimSpace(payoutID))
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
