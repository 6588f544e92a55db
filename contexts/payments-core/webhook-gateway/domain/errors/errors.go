package errors

import "errors"

var (
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrUnknownProvider  = errors.New("unknown payment provider")
)
