package errors

import "errors"

var (
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrInvalidCampaignInput   = errors.New("invalid campaign input")
	ErrInvalidCommissionRate  = errors.New("commission rate must be between 1.0 and 10.0 when chaining is enabled")
	ErrCampaignClosed         = errors.New("campaign is already closed")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyKeyConflict = errors.New("idempotency key conflict")
)
