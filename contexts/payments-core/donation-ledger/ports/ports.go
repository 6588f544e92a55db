package ports

import (
	"context"
	"time"

	"chainraise/contexts/payments-core/donation-ledger/domain/entities"
	providerports "chainraise/contexts/payments-core/provider-gateway/ports"
	contractsv1 "chainraise/contracts/gen/events/v1"
)

type DonationRepository interface {
	CreateDonation(ctx context.Context, donation entities.Donation) error
	UpdateDonation(ctx context.Context, donation entities.Donation) error
	GetDonation(ctx context.Context, donationID string) (entities.Donation, error)
	FindByProviderReference(ctx context.Context, provider string, reference string) (entities.Donation, bool, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]entities.Donation, error)
	ListCompletedByCampaign(ctx context.Context, campaignID string) ([]entities.Donation, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]entities.Donation, error)
}

// CampaignFunding is the slice of campaign state the ledger needs.
type CampaignFunding struct {
	CampaignID      string
	OwnerID         string
	Currency        string
	GoalAmount      float64
	CurrentAmount   float64
	ChainingEnabled bool
	CommissionRate  float64
	Accepting       bool
}

// CampaignGateway is the write path back into the campaign aggregate.
// ApplyBalance carries the recomputed total; goal closure is evaluated on
// the campaign side.
type CampaignGateway interface {
	GetFunding(ctx context.Context, campaignID string) (CampaignFunding, error)
	ApplyBalance(ctx context.Context, campaignID string, currentAmount float64) error
}

type AccrualInput struct {
	DonationID string
	CampaignID string
	DonorID    string
	ReferrerID string
	Amount     float64
}

// CommissionAccruer hands a completed referred donation to the commission
// engine. Accrual failures must not fail the ledger write.
type CommissionAccruer interface {
	AccrueCommission(ctx context.Context, input AccrualInput) error
}

// CurrencyConverter is a total pure function; no I/O, no failure mode.
type CurrencyConverter interface {
	Convert(amount float64, fromCurrency string, toCurrency string) float64
}

// ProviderStatusFetcher re-queries a provider for the authoritative state
// of a transaction, used by admin reconciliation tooling.
type ProviderStatusFetcher interface {
	FetchStatus(ctx context.Context, providerTag string, reference string) (providerports.StatusResult, error)
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// ProviderEvent is the ledger-facing shape of a payment notification,
// normalized by ingestion or the reconciler.
type ProviderEvent struct {
	Provider       string
	Reference      string
	Status         providerports.TransactionStatus
	ProviderStatus string
	ProviderError  string
}
