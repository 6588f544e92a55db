package entities

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// MaxRetriesReason replaces the provider failure reason once the retry cap
// is exceeded, so operators can tell transient from permanent failures.
const MaxRetriesReason = "max retries exceeded"

// Donation is one row in the payment ledger. It is created at checkout
// initiation and mutated only through the transition table below; rows are
// never deleted.
type Donation struct {
	DonationID        string
	CampaignID        string
	DonorID           string
	ReferrerID        string
	Amount            float64
	Currency          string
	ConvertedAmount   float64
	ConvertedCurrency string
	ConversionRate    float64
	PaymentMethod     string
	ProviderReference string
	PaymentStatus     PaymentStatus
	RetryAttempts     int
	FailureReason     string
	ProviderStatus    string
	ProviderError     string
	CreatedAt         time.Time
	ProcessedAt       *time.Time
	StatusUpdatedAt   time.Time
}

// EffectiveAmount is the value aggregation uses: the converted amount when
// conversion happened, the raw amount otherwise.
func (d Donation) EffectiveAmount() float64 {
	if d.ConvertedAmount > 0 {
		return d.ConvertedAmount
	}
	return d.Amount
}

// transitions is the full donation status machine. Completed and failed
// are terminal: once a donation completes, later events may refresh
// diagnostic fields but never the status (last-writer-wins is disallowed).
var transitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentStatusPending: {
		PaymentStatusPending:   true,
		PaymentStatusCompleted: true,
		PaymentStatusFailed:    true,
	},
	PaymentStatusCompleted: {},
	PaymentStatusFailed:    {},
}

func CanTransition(from, to PaymentStatus) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	return allowed[to]
}
