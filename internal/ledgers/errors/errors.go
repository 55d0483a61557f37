package errors

import "errors"

var (
	ErrNotFound = errors.New("participant ledger not found")

	ErrWrongParticipant = errors.New("event addressed to a different participant ledger")
)
