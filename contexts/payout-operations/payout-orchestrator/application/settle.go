package application

import (
	"context"
	"strings"

	"chainraise/contexts/payout-operations/payout-orchestrator/domain/entities"
)

// settle runs the settlement attempt for an approved payout. Campaign
// payouts have the fee breakdown computed here, against the provider's
// current schedule; a reinvest-destination commission payout never leaves
// the platform and completes in place.
func (s Service) settle(ctx context.Context, payout entities.Payout, actorID string) (entities.Payout, error) {
	logger := ResolveLogger(s.Logger)

	transferAmount := payout.Amount
	if payout.Family == entities.PayoutFamilyCampaign {
		fees, err := s.Settlement.Fees(payout.Provider)
		if err != nil {
			return s.markFailed(ctx, payout, "settle", actorID, "provider fee lookup failed: "+err.Error())
		}
		unpaid, err := s.Commissions.UnpaidCommissionTotal(ctx, payout.CampaignID)
		if err != nil {
			return s.markFailed(ctx, payout, "settle", actorID, "commission lookup failed: "+err.Error())
		}
		breakdown := entities.ComputeCampaignSettlement(
			payout.Amount,
			s.PlatformFeePercent,
			fees.RebatePercent,
			fees.FixedFee,
			unpaid,
		)
		payout.PlatformFee = breakdown.PlatformFee
		payout.CommissionDeduction = breakdown.Commissions
		payout.ProviderFee = breakdown.ProviderFixed
		payout.NetAmount = breakdown.Net
		transferAmount = breakdown.Net
		if transferAmount <= 0 {
			return s.markFailed(ctx, payout, "settle", actorID, "net payout amount is zero after fees")
		}
	} else {
		payout.NetAmount = payout.Amount
	}

	if payout.Family == entities.PayoutFamilyCommission && payout.Destination == entities.DestinationReinvest {
		return s.settleReinvestment(ctx, payout, actorID)
	}

	outcome, err := s.Settlement.InitiateTransfer(
		ctx,
		payout.Provider,
		payout.DestinationAccount,
		transferAmount,
		payout.Currency,
		"payout "+payout.PayoutID,
	)
	if err != nil {
		return s.markFailed(ctx, payout, "settle", actorID, "transfer initiation failed: "+err.Error())
	}
	if !outcome.Accepted {
		reason := outcome.Reason
		if strings.TrimSpace(reason) == "" {
			reason = "transfer rejected by provider"
		}
		return s.markFailed(ctx, payout, "settle", actorID, reason)
	}

	from := payout.Status
	now := s.now()
	payout.Status = entities.PayoutStatusProcessing
	payout.TransactionReference = outcome.Reference
	payout.UpdatedAt = now
	if err := s.Payouts.UpdatePayout(ctx, payout); err != nil {
		return entities.Payout{}, err
	}

	s.audit(ctx, payout, "settle", from, entities.PayoutStatusProcessing, actorID, "")
	logger.Info("payout settlement initiated",
		"event", "payout_settlement_initiated",
		"module", "payout-operations/payout-orchestrator",
		"layer", "application",
		"payout_id", payout.PayoutID,
		"provider", payout.Provider,
		"net_amount", payout.NetAmount,
		"transaction_reference", payout.TransactionReference,
	)
	return payout, nil
}

// settleReinvestment completes a reinvest-destination payout without a
// provider call; the funds stay on the platform and are credited back to
// the campaign.
func (s Service) settleReinvestment(ctx context.Context, payout entities.Payout, actorID string) (entities.Payout, error) {
	logger := ResolveLogger(s.Logger)

	if s.Reinvest != nil {
		standing, err := s.Commissions.GetReferrerStanding(ctx, payout.ReferrerID)
		if err != nil {
			return s.markFailed(ctx, payout, "settle", actorID, "referrer lookup failed: "+err.Error())
		}
		if err := s.Reinvest.ApplyReinvestment(ctx, payout.CampaignID, standing.UserID, payout.NetAmount, payout.Currency); err != nil {
			return s.markFailed(ctx, payout, "settle", actorID, "reinvestment failed: "+err.Error())
		}
	}

	payout.TransactionReference = "reinvest:" + payout.PayoutID
	settled, err := s.markCompleted(ctx, payout, "settle", actorID)
	if err != nil {
		return entities.Payout{}, err
	}

	logger.Info("commission reinvested",
		"event", "payout_reinvested",
		"module", "payout-operations/payout-orchestrator",
		"layer", "application",
		"payout_id", settled.PayoutID,
		"campaign_id", settled.CampaignID,
		"amount", settled.NetAmount,
	)
	return settled, nil
}

func (s Service) markCompleted(ctx context.Context, payout entities.Payout, action string, actorID string) (entities.Payout, error) {
	from := payout.Status
	now := s.now()
	payout.Status = entities.PayoutStatusCompleted
	payout.StatusReason = ""
	payout.CompletedAt = &now
	payout.UpdatedAt = now
	if err := s.Payouts.UpdatePayout(ctx, payout); err != nil {
		return entities.Payout{}, err
	}

	s.settleCommissionLedger(ctx, payout)
	s.audit(ctx, payout, action, from, entities.PayoutStatusCompleted, actorID, "")
	s.appendPayoutOutbox(ctx, "payout_completed", payout, now)
	s.logTransition(payout, "payout_completed")
	return payout, nil
}

func (s Service) markFailed(ctx context.Context, payout entities.Payout, action string, actorID string, reason string) (entities.Payout, error) {
	from := payout.Status
	now := s.now()
	payout.Status = entities.PayoutStatusFailed
	payout.StatusReason = reason
	payout.UpdatedAt = now
	if err := s.Payouts.UpdatePayout(ctx, payout); err != nil {
		return entities.Payout{}, err
	}

	s.audit(ctx, payout, action, from, entities.PayoutStatusFailed, actorID, reason)
	s.appendPayoutOutbox(ctx, "payout_failed", payout, now)
	s.logTransition(payout, "payout_failed")
	return payout, nil
}

// settleCommissionLedger flags accrued commissions as paid once the
// payout that covers them completes. Best-effort: a marking failure is an
// operator problem, logged and not propagated.
func (s Service) settleCommissionLedger(ctx context.Context, payout entities.Payout) {
	logger := ResolveLogger(s.Logger)

	var err error
	switch payout.Family {
	case entities.PayoutFamilyCampaign:
		err = s.Commissions.MarkCampaignCommissionsPaid(ctx, payout.CampaignID)
	case entities.PayoutFamilyCommission:
		err = s.Commissions.MarkReferrerCommissionsPaid(ctx, payout.ReferrerID)
	}
	if err != nil {
		logger.Error("commission settlement marking failed",
			"event", "payout_commission_marking_failed",
			"module", "payout-operations/payout-orchestrator",
			"layer", "application",
			"payout_id", payout.PayoutID,
			"error", err.Error(),
		)
	}
}
