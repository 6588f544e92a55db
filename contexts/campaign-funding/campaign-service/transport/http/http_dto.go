package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateCampaignRequest struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	GoalAmount        float64 `json:"goal_amount"`
	Currency          string  `json:"currency"`
	ChainingEnabled   bool    `json:"chaining_enabled"`
	CommissionRate    float64 `json:"commission_rate,omitempty"`
	PayoutProvider    string  `json:"payout_provider"`
	SettlementAccount string  `json:"settlement_account"`
}

type CampaignDTO struct {
	CampaignID      string  `json:"campaign_id"`
	OwnerID         string  `json:"owner_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	GoalAmount      float64 `json:"goal_amount"`
	Currency        string  `json:"currency"`
	CurrentAmount   float64 `json:"current_amount"`
	ChainingEnabled bool    `json:"chaining_enabled"`
	CommissionRate  float64 `json:"commission_rate"`
	Status          string  `json:"status"`
	ClosureReason   string  `json:"closure_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
	ClosedAt        string  `json:"closed_at,omitempty"`
}

type CreateCampaignResponse struct {
	Status   string      `json:"status"`
	Replayed bool        `json:"replayed,omitempty"`
	Data     CampaignDTO `json:"data"`
}

type GetCampaignResponse struct {
	Status string      `json:"status"`
	Data   CampaignDTO `json:"data"`
}

type ListCampaignsResponse struct {
	Status string        `json:"status"`
	Data   []CampaignDTO `json:"data"`
}

type CloseCampaignRequest struct {
	Reason string `json:"reason"`
}

type CloseCampaignResponse struct {
	Status string `json:"status"`
}
