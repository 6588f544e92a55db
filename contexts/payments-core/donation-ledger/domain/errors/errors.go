package errors

import "errors"

var (
	ErrDonationNotFound       = errors.New("donation not found")
	ErrInvalidDonationInput   = errors.New("invalid donation input")
	ErrCampaignNotAccepting   = errors.New("campaign is not accepting donations")
	ErrInvalidStateTransition = errors.New("invalid donation state transition")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyKeyConflict = errors.New("idempotency key conflict")
)
