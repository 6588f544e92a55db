package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterReferrerRequest struct {
	CampaignID   string `json:"campaign_id"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type ReferrerDTO struct {
	ReferrerID       string  `json:"referrer_id"`
	UserID           string  `json:"user_id"`
	CampaignID       string  `json:"campaign_id"`
	ReferralCode     string  `json:"referral_code"`
	TotalRaised      float64 `json:"total_raised"`
	TotalReferrals   int     `json:"total_referrals"`
	CommissionEarned float64 `json:"commission_earned"`
	CommissionPaid   bool    `json:"commission_paid"`
	CreatedAt        string  `json:"created_at"`
}

type RegisterReferrerResponse struct {
	Status   string      `json:"status"`
	Replayed bool        `json:"replayed,omitempty"`
	Data     ReferrerDTO `json:"data"`
}

type GetReferrerResponse struct {
	Status string      `json:"status"`
	Data   ReferrerDTO `json:"data"`
}

type LeaderboardResponse struct {
	Status string        `json:"status"`
	Data   []ReferrerDTO `json:"data"`
}
