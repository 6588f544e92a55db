package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateDonationRequest struct {
	CampaignID        string  `json:"campaign_id"`
	ReferrerID        string  `json:"referrer_id,omitempty"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	PaymentMethod     string  `json:"payment_method"`
	ProviderReference string  `json:"provider_reference"`
}

type DonationDTO struct {
	DonationID        string  `json:"donation_id"`
	CampaignID        string  `json:"campaign_id"`
	DonorID           string  `json:"donor_id"`
	ReferrerID        string  `json:"referrer_id,omitempty"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	ConvertedAmount   float64 `json:"converted_amount,omitempty"`
	ConvertedCurrency string  `json:"converted_currency,omitempty"`
	PaymentMethod     string  `json:"payment_method"`
	ProviderReference string  `json:"provider_reference"`
	PaymentStatus     string  `json:"payment_status"`
	RetryAttempts     int     `json:"retry_attempts"`
	FailureReason     string  `json:"failure_reason,omitempty"`
	CreatedAt         string  `json:"created_at"`
	ProcessedAt       string  `json:"processed_at,omitempty"`
}

type CreateDonationResponse struct {
	Status   string      `json:"status"`
	Replayed bool        `json:"replayed,omitempty"`
	Data     DonationDTO `json:"data"`
}

type GetDonationResponse struct {
	Status string      `json:"status"`
	Data   DonationDTO `json:"data"`
}

type ListDonationsResponse struct {
	Status string        `json:"status"`
	Data   []DonationDTO `json:"data"`
}
