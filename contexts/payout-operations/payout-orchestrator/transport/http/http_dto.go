package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RequestCampaignPayoutRequest struct {
	CampaignID string `json:"campaign_id"`
}

type RequestCommissionPayoutRequest struct {
	ReferrerID         string `json:"referrer_id"`
	Destination        string `json:"destination"`
	Provider           string `json:"provider,omitempty"`
	DestinationAccount string `json:"destination_account,omitempty"`
}

type PayoutActionRequest struct {
	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

type PayoutDTO struct {
	PayoutID             string  `json:"payout_id"`
	Family               string  `json:"family"`
	CampaignID           string  `json:"campaign_id"`
	ReferrerID           string  `json:"referrer_id,omitempty"`
	RequesterID          string  `json:"requester_id"`
	Amount               float64 `json:"amount"`
	Currency             string  `json:"currency"`
	Destination          string  `json:"destination"`
	Provider             string  `json:"provider,omitempty"`
	PlatformFee          float64 `json:"platform_fee,omitempty"`
	CommissionDeduction  float64 `json:"commission_deduction,omitempty"`
	ProviderFee          float64 `json:"provider_fee,omitempty"`
	NetAmount            float64 `json:"net_amount,omitempty"`
	Status               string  `json:"status"`
	StatusReason         string  `json:"status_reason,omitempty"`
	ApprovedBy           string  `json:"approved_by,omitempty"`
	TransactionReference string  `json:"transaction_reference,omitempty"`
	Notes                string  `json:"notes,omitempty"`
	CreatedAt            string  `json:"created_at"`
	CompletedAt          string  `json:"completed_at,omitempty"`
}

type PayoutResponse struct {
	Status string    `json:"status"`
	Data   PayoutDTO `json:"data"`
}

type ListPayoutsResponse struct {
	Status string      `json:"status"`
	Data   []PayoutDTO `json:"data"`
}

type AuditRecordDTO struct {
	AuditID    string `json:"audit_id"`
	PayoutID   string `json:"payout_id"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status"`
	ActorID    string `json:"actor_id"`
	Reason     string `json:"reason,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type AuditTrailResponse struct {
	Status string           `json:"status"`
	Data   []AuditRecordDTO `json:"data"`
}
