package errors

import "errors"

var (
	ErrUnknownProvider     = errors.New("payment provider is not registered")
	ErrProviderUnavailable = errors.New("payment provider request failed")
)
