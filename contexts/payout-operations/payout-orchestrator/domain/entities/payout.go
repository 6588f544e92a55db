package entities

import (
	"math"
	"strings"
	"time"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusApproved   PayoutStatus = "approved"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusRejected   PayoutStatus = "rejected"
	PayoutStatusFailed     PayoutStatus = "failed"
)

type PayoutFamily string

const (
	PayoutFamilyCampaign   PayoutFamily = "campaign"
	PayoutFamilyCommission PayoutFamily = "commission"
)

type PayoutDestination string

const (
	DestinationWithdraw PayoutDestination = "withdraw"
	DestinationReinvest PayoutDestination = "reinvest"
)

// Payout is the shared shape for both payout families. Campaign payouts
// carry a settlement breakdown; commission payouts carry a referrer
// reference and a destination.
type Payout struct {
	PayoutID             string
	Family               PayoutFamily
	CampaignID           string
	ReferrerID           string
	RequesterID          string
	Amount               float64
	Currency             string
	Destination          PayoutDestination
	Provider             string
	DestinationAccount   string
	PlatformFee          float64
	CommissionDeduction  float64
	ProviderFee          float64
	NetAmount            float64
	Status               PayoutStatus
	StatusReason         string
	ApprovedBy           string
	ApprovedAt           *time.Time
	TransactionReference string
	Notes                string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CompletedAt          *time.Time
}

// transitions is the shared approval and settlement state machine.
// completed appears as a source only for the data-integrity repair path,
// which additionally requires an empty transaction reference.
var transitions = map[PayoutStatus][]PayoutStatus{
	PayoutStatusPending:    {PayoutStatusApproved, PayoutStatusRejected},
	PayoutStatusApproved:   {PayoutStatusProcessing, PayoutStatusCompleted, PayoutStatusFailed},
	PayoutStatusProcessing: {PayoutStatusCompleted, PayoutStatusFailed},
	PayoutStatusFailed:     {PayoutStatusApproved},
	PayoutStatusCompleted:  {PayoutStatusApproved},
	PayoutStatusRejected:   {},
}

func CanTransition(from PayoutStatus, to PayoutStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RetryableFrom reports whether a payout in this state may re-enter
// approved. A completed payout is repairable only when it never received
// a settlement transaction reference.
func (p Payout) RetryableFrom() bool {
	if p.Status == PayoutStatusFailed {
		return true
	}
	return p.Status == PayoutStatusCompleted && strings.TrimSpace(p.TransactionReference) == ""
}

// SettlementBreakdown is the fee math applied to a campaign payout at
// settlement time.
type SettlementBreakdown struct {
	Available     float64
	PlatformFee   float64
	Commissions   float64
	ProviderFixed float64
	Net           float64
}

// ComputeCampaignSettlement nets out the platform fee, unpaid referrer
// commissions, and the provider's fixed transfer fee. The platform
// percentage is reduced by the provider's rebate before applying, and the
// result never goes below zero.
func ComputeCampaignSettlement(
	available float64,
	platformFeePercent float64,
	providerPercentRebate float64,
	providerFixedFee float64,
	unpaidCommissions float64,
) SettlementBreakdown {
	effectivePercent := platformFeePercent - providerPercentRebate
	if effectivePercent < 0 {
		effectivePercent = 0
	}
	platformFee := round2(available * effectivePercent / 100)
	net := available - platformFee - unpaidCommissions - providerFixedFee
	if net < 0 {
		net = 0
	}
	return SettlementBreakdown{
		Available:     round2(available),
		PlatformFee:   platformFee,
		Commissions:   round2(unpaidCommissions),
		ProviderFixed: round2(providerFixedFee),
		Net:           round2(net),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AuditRecord captures one orchestrator action. Writes are best-effort
// and must never block the transition itself.
type AuditRecord struct {
	AuditID    string
	PayoutID   string
	Action     string
	FromStatus PayoutStatus
	ToStatus   PayoutStatus
	ActorID    string
	Reason     string
	CreatedAt  time.Time
}
