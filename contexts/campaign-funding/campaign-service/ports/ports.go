package ports

import (
	"context"
	"time"

	"chainraise/contexts/campaign-funding/campaign-service/domain/entities"
	contractsv1 "chainraise/contracts/gen/events/v1"
)

type CampaignFilter struct {
	OwnerID string
	Status  entities.CampaignStatus
}

type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign entities.Campaign) error
	UpdateCampaign(ctx context.Context, campaign entities.Campaign) error
	GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error)
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]entities.Campaign, error)
}

type HistoryRepository interface {
	AppendState(ctx context.Context, item entities.StateHistory) error
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

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}
