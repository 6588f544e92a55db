package entities

import (
	"strings"
	"time"
)

type CampaignStatus string
type ClosureReason string

const (
	CampaignStatusActive CampaignStatus = "active"
	CampaignStatusClosed CampaignStatus = "closed"

	ClosureReasonGoalReached ClosureReason = "goal_reached"
	ClosureReasonManual      ClosureReason = "manual"
	ClosureReasonExpired     ClosureReason = "expired"
)

// Campaign is the funding aggregate. CurrentAmount is derived by the
// balance aggregator from completed donations and never hand-edited.
type Campaign struct {
	CampaignID        string
	OwnerID           string
	Title             string
	Description       string
	GoalAmount        float64
	Currency          string
	CurrentAmount     float64
	ChainingEnabled   bool
	CommissionRate    float64
	PayoutProvider    string
	SettlementAccount string
	Status            CampaignStatus
	ClosureReason     ClosureReason
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ClosedAt          *time.Time
}

func (c Campaign) AcceptsDonations() bool {
	return c.Status == CampaignStatusActive
}

func (c Campaign) GoalReached() bool {
	return c.GoalAmount > 0 && c.CurrentAmount >= c.GoalAmount
}

func (c Campaign) ValidateBasics() bool {
	return strings.TrimSpace(c.Title) != "" &&
		strings.TrimSpace(c.OwnerID) != "" &&
		strings.TrimSpace(c.Currency) != "" &&
		c.GoalAmount > 0
}

// ValidCommissionRate bounds the chaining commission percentage.
// Campaigns without chaining must carry a zero rate.
func ValidCommissionRate(chainingEnabled bool, rate float64) bool {
	if !chainingEnabled {
		return rate == 0
	}
	return rate >= 1.0 && rate <= 10.0
}

// StateHistory records every campaign status change, including the
// one-way closure transitions.
type StateHistory struct {
	HistoryID  string
	CampaignID string
	FromStatus CampaignStatus
	ToStatus   CampaignStatus
	Reason     ClosureReason
	ChangedBy  string
	CreatedAt  time.Time
}
