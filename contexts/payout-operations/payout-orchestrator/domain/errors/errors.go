package errors

import "errors"

var (
	ErrPayoutNotFound         = errors.New("payout not found")
	ErrInvalidPayoutInput     = errors.New("invalid payout input")
	ErrInvalidStateTransition = errors.New("invalid payout state transition")
	ErrMissingTransactionRef  = errors.New("settlement transaction reference required")
	ErrTransactionRefPresent  = errors.New("payout already has a settlement transaction reference")
	ErrReasonRequired         = errors.New("a reason is required")
	ErrNothingToPayOut        = errors.New("no funds available to pay out")
	ErrUnknownAction          = errors.New("unknown payout action")
)
