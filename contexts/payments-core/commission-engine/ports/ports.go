package ports

import (
	"context"
	"time"

	"chainraise/contexts/payments-core/commission-engine/domain/entities"
)

type ReferrerRepository interface {
	CreateReferrer(ctx context.Context, referrer entities.Referrer) error
	UpdateReferrer(ctx context.Context, referrer entities.Referrer) error
	GetReferrer(ctx context.Context, referrerID string) (entities.Referrer, error)
	FindByUserAndCampaign(ctx context.Context, userID string, campaignID string) (entities.Referrer, bool, error)
	ListByCampaign(ctx context.Context, campaignID string, limit int) ([]entities.Referrer, error)
}

type CommissionRecordRepository interface {
	CreateRecord(ctx context.Context, record entities.CommissionRecord) error
	FindByDonation(ctx context.Context, donationID string) (entities.CommissionRecord, bool, error)
	ListUnpaidByCampaign(ctx context.Context, campaignID string) ([]entities.CommissionRecord, error)
	ListUnpaidByReferrer(ctx context.Context, referrerID string) ([]entities.CommissionRecord, error)
	MarkPaidByCampaign(ctx context.Context, campaignID string, paidAt time.Time) error
	MarkPaidByReferrer(ctx context.Context, referrerID string, paidAt time.Time) error
}

// ChainingPolicy is the campaign-side configuration commission math
// depends on.
type ChainingPolicy struct {
	Enabled bool
	Rate    float64
}

type CampaignChainingGateway interface {
	GetChainingPolicy(ctx context.Context, campaignID string) (ChainingPolicy, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
