package ports

import (
	"context"
	"encoding/json"
)

type TransactionStatus string

const (
	StatusSucceeded TransactionStatus = "succeeded"
	StatusFailed    TransactionStatus = "failed"
	StatusPending   TransactionStatus = "pending"
	// StatusAuthError means the provider rejected our credentials, not the
	// payment. Callers must treat the true payment outcome as unknown.
	StatusAuthError TransactionStatus = "auth_error"
)

type StatusResult struct {
	Status         TransactionStatus
	ProviderStatus string
	ProviderError  string
	Raw            json.RawMessage
}

type TransferRequest struct {
	DestinationAccount string
	Amount             float64
	Currency           string
	Reference          string
	Reason             string
	Metadata           map[string]string
}

type TransferResult struct {
	Reference string
	Accepted  bool
	Error     string
}

type EventKind string

const (
	EventKindDonation EventKind = "donation"
	EventKindTransfer EventKind = "transfer"
	EventKindUnknown  EventKind = "unknown"
)

// WebhookEvent is the normalized view of a provider callback payload.
// Adapters own the provider-specific shapes so ingestion never branches
// on provider tags.
type WebhookEvent struct {
	Kind           EventKind
	Reference      string
	Status         TransactionStatus
	ProviderStatus string
	ProviderError  string
}

// FeeSchedule is data on the adapter, not inline conditionals in callers.
type FeeSchedule struct {
	PercentFee    float64
	FixedFee      float64
	RebatePercent float64
}

// ProviderAdapter is the uniform capability surface implemented once per
// payment provider. Transfer rejections and provider-side declines come
// back as typed results; the error return is reserved for transport
// failures so callers can branch on transient vs terminal.
type ProviderAdapter interface {
	Tag() string
	VerifySignature(rawBody []byte, signatureHeader string) bool
	ParseWebhookEvent(rawBody []byte) (WebhookEvent, error)
	FetchStatus(ctx context.Context, reference string) (StatusResult, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (TransferResult, error)
	FeeSchedule() FeeSchedule
}
