package bootstrap

import (
	"context"

	campaigncommands "chainraise/contexts/campaign-funding/campaign-service/application/commands"
	campaignports "chainraise/contexts/campaign-funding/campaign-service/ports"
	commissionapp "chainraise/contexts/payments-core/commission-engine/application"
	commissionports "chainraise/contexts/payments-core/commission-engine/ports"
	ledgerapp "chainraise/contexts/payments-core/donation-ledger/application"
	ledgerports "chainraise/contexts/payments-core/donation-ledger/ports"
	providergateway "chainraise/contexts/payments-core/provider-gateway"
	providerports "chainraise/contexts/payments-core/provider-gateway/ports"
	payoutports "chainraise/contexts/payout-operations/payout-orchestrator/ports"
)

// campaignFundingGateway adapts the campaign aggregate to the donation
// ledger's view of it. Balance writes go through ApplyBalance so goal
// closure is evaluated on the campaign side.
type campaignFundingGateway struct {
	campaigns campaignports.CampaignRepository
	apply     campaigncommands.ApplyBalanceUseCase
}

func (g campaignFundingGateway) GetFunding(ctx context.Context, campaignID string) (ledgerports.CampaignFunding, error) {
	campaign, err := g.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return ledgerports.CampaignFunding{}, err
	}
	return ledgerports.CampaignFunding{
		CampaignID:      campaign.CampaignID,
		OwnerID:         campaign.OwnerID,
		Currency:        campaign.Currency,
		GoalAmount:      campaign.GoalAmount,
		CurrentAmount:   campaign.CurrentAmount,
		ChainingEnabled: campaign.ChainingEnabled,
		CommissionRate:  campaign.CommissionRate,
		Accepting:       campaign.AcceptsDonations(),
	}, nil
}

func (g campaignFundingGateway) ApplyBalance(ctx context.Context, campaignID string, currentAmount float64) error {
	return g.apply.Execute(ctx, campaigncommands.ApplyBalanceCommand{
		CampaignID:    campaignID,
		CurrentAmount: currentAmount,
	})
}

// campaignChainingGateway exposes just the chaining policy to the
// commission engine.
type campaignChainingGateway struct {
	campaigns campaignports.CampaignRepository
}

func (g campaignChainingGateway) GetChainingPolicy(ctx context.Context, campaignID string) (commissionports.ChainingPolicy, error) {
	campaign, err := g.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return commissionports.ChainingPolicy{}, err
	}
	return commissionports.ChainingPolicy{
		Enabled: campaign.ChainingEnabled,
		Rate:    campaign.CommissionRate,
	}, nil
}

// campaignFinanceGateway exposes settlement-relevant campaign state to
// the payout orchestrator.
type campaignFinanceGateway struct {
	campaigns campaignports.CampaignRepository
}

func (g campaignFinanceGateway) GetFinance(ctx context.Context, campaignID string) (payoutports.CampaignFinance, error) {
	campaign, err := g.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return payoutports.CampaignFinance{}, err
	}
	return payoutports.CampaignFinance{
		CampaignID:        campaign.CampaignID,
		OwnerID:           campaign.OwnerID,
		Currency:          campaign.Currency,
		CurrentAmount:     campaign.CurrentAmount,
		PayoutProvider:    campaign.PayoutProvider,
		SettlementAccount: campaign.SettlementAccount,
		Closed:            !campaign.AcceptsDonations(),
	}, nil
}

// commissionAccruer bridges the ledger's accrual port onto the
// commission engine.
type commissionAccruer struct {
	commissions commissionapp.Service
}

func (a commissionAccruer) AccrueCommission(ctx context.Context, input ledgerports.AccrualInput) error {
	return a.commissions.AccrueCommission(ctx, commissionapp.AccrualInput{
		DonationID: input.DonationID,
		CampaignID: input.CampaignID,
		DonorID:    input.DonorID,
		ReferrerID: input.ReferrerID,
		Amount:     input.Amount,
	})
}

// commissionLedgerGateway exposes commission standing and settlement
// marking to the payout orchestrator.
type commissionLedgerGateway struct {
	commissions commissionapp.Service
}

func (g commissionLedgerGateway) GetReferrerStanding(ctx context.Context, referrerID string) (payoutports.ReferrerStanding, error) {
	referrer, err := g.commissions.GetReferrer(ctx, referrerID)
	if err != nil {
		return payoutports.ReferrerStanding{}, err
	}
	return payoutports.ReferrerStanding{
		ReferrerID: referrer.ReferrerID,
		UserID:     referrer.UserID,
		CampaignID: referrer.CampaignID,
	}, nil
}

func (g commissionLedgerGateway) UnpaidCommissionTotal(ctx context.Context, campaignID string) (float64, error) {
	return g.commissions.UnpaidCommissionTotal(ctx, campaignID)
}

func (g commissionLedgerGateway) UnpaidReferrerCommissionTotal(ctx context.Context, referrerID string) (float64, error) {
	return g.commissions.UnpaidReferrerCommissionTotal(ctx, referrerID)
}

func (g commissionLedgerGateway) MarkCampaignCommissionsPaid(ctx context.Context, campaignID string) error {
	return g.commissions.MarkCampaignCommissionsPaid(ctx, campaignID)
}

func (g commissionLedgerGateway) MarkReferrerCommissionsPaid(ctx context.Context, referrerID string) error {
	return g.commissions.MarkReferrerCommissionsPaid(ctx, referrerID)
}

// donationEventTarget routes ingested donation events into the ledger.
type donationEventTarget struct {
	ledger ledgerapp.Service
}

func (t donationEventTarget) ApplyDonationEvent(ctx context.Context, event ledgerports.ProviderEvent) (bool, error) {
	_, matched, err := t.ledger.ApplyProviderEvent(ctx, event)
	return matched, err
}

// charityFallbackTarget stands in for the external charity-donation
// system. No charity directory is wired, so every probe reports no match
// and the event falls through to the drop path.
type charityFallbackTarget struct{}

func (charityFallbackTarget) ApplyCharityDonationEvent(_ context.Context, _ ledgerports.ProviderEvent) (bool, error) {
	return false, nil
}

// registryStatusFetcher adapts the provider registry to the reconciler's
// status port.
type registryStatusFetcher struct {
	registry *providergateway.Registry
}

func (f registryStatusFetcher) FetchStatus(ctx context.Context, providerTag string, reference string) (providerports.StatusResult, error) {
	adapter, err := f.registry.Resolve(providerTag)
	if err != nil {
		return providerports.StatusResult{}, err
	}
	return adapter.FetchStatus(ctx, reference)
}
