package entities

import (
	"math"
	"strings"
	"time"
)

// Referrer is a chaining participant sharing one campaign's link. Totals
// are running accruals; no funds move until a commission payout settles.
type Referrer struct {
	ReferrerID       string
	UserID           string
	CampaignID       string
	ReferralCode     string
	TotalRaised      float64
	TotalReferrals   int
	CommissionEarned float64
	CommissionPaid   bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CommissionRecord is one accrual, keyed by the completed donation that
// produced it. The donation key is what makes accrual replay-safe.
type CommissionRecord struct {
	RecordID       string
	DonationID     string
	CampaignID     string
	ReferrerID     string
	DonationAmount float64
	Rate           float64
	Amount         float64
	Paid           bool
	CreatedAt      time.Time
}

// ComputeCommission applies a campaign-level percentage rate to the gross
// donation amount.
func ComputeCommission(amount float64, rate float64) float64 {
	if amount <= 0 || rate <= 0 {
		return 0
	}
	return math.Round(amount*rate) / 100
}

func (r Referrer) Validate() bool {
	return strings.TrimSpace(r.UserID) != "" && strings.TrimSpace(r.CampaignID) != ""
}
