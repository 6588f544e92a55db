package errors

import "errors"

var (
	ErrReferrerNotFound     = errors.New("referrer not found")
	ErrInvalidReferrerInput = errors.New("invalid referrer input")
	ErrChainingDisabled     = errors.New("chaining is not enabled for campaign")
)
