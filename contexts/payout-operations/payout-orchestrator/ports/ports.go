package ports

import (
	"context"
	"time"

	ledgerports "chainraise/contexts/payments-core/donation-ledger/ports"
	"chainraise/contexts/payout-operations/payout-orchestrator/domain/entities"
	contractsv1 "chainraise/contracts/gen/events/v1"
)

type PayoutFilter struct {
	CampaignID string
	ReferrerID string
	Family     entities.PayoutFamily
	Status     entities.PayoutStatus
}

type PayoutRepository interface {
	CreatePayout(ctx context.Context, payout entities.Payout) error
	UpdatePayout(ctx context.Context, payout entities.Payout) error
	GetPayout(ctx context.Context, payoutID string) (entities.Payout, error)
	FindByTransactionReference(ctx context.Context, provider string, reference string) (entities.Payout, bool, error)
	ListPayouts(ctx context.Context, filter PayoutFilter) ([]entities.Payout, error)
}

type AuditRepository interface {
	AppendAudit(ctx context.Context, record entities.AuditRecord) error
	ListByPayout(ctx context.Context, payoutID string) ([]entities.AuditRecord, error)
}

// TransferOutcome is the typed settlement result. Failures come back as
// Accepted=false with a reason, never as an error, so callers can branch
// on transient-vs-terminal without unwrapping.
type TransferOutcome struct {
	Reference string
	Accepted  bool
	Reason    string
}

type ProviderFees struct {
	PercentFee    float64
	FixedFee      float64
	RebatePercent float64
}

// SettlementGateway moves funds out through a payment provider.
type SettlementGateway interface {
	InitiateTransfer(
		ctx context.Context,
		providerTag string,
		destinationAccount string,
		amount float64,
		currency string,
		narration string,
	) (TransferOutcome, error)
	Fees(providerTag string) (ProviderFees, error)
}

// CampaignFinance is the campaign-side state payout settlement needs.
type CampaignFinance struct {
	CampaignID        string
	OwnerID           string
	Currency          string
	CurrentAmount     float64
	PayoutProvider    string
	SettlementAccount string
	Closed            bool
}

type CampaignFinanceGateway interface {
	GetFinance(ctx context.Context, campaignID string) (CampaignFinance, error)
}

// ReferrerStanding identifies a chaining participant. Payable amounts
// come from the unpaid-accrual queries, never from lifetime totals.
type ReferrerStanding struct {
	ReferrerID string
	UserID     string
	CampaignID string
}

// CommissionLedgerGateway reads accrued commissions and marks them
// settled once a payout completes.
type CommissionLedgerGateway interface {
	GetReferrerStanding(ctx context.Context, referrerID string) (ReferrerStanding, error)
	UnpaidCommissionTotal(ctx context.Context, campaignID string) (float64, error)
	UnpaidReferrerCommissionTotal(ctx context.Context, referrerID string) (float64, error)
	MarkCampaignCommissionsPaid(ctx context.Context, campaignID string) error
	MarkReferrerCommissionsPaid(ctx context.Context, referrerID string) error
}

// ReinvestSink credits a settled reinvest-destination commission payout
// back into the campaign.
type ReinvestSink interface {
	ApplyReinvestment(ctx context.Context, campaignID string, referrerUserID string, amount float64, currency string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// TransferEvent mirrors the ledger-facing provider event shape for
// settlement confirmations.
type TransferEvent = ledgerports.ProviderEvent
