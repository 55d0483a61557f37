package errors

import "errors"

var (
	ErrAlreadyAvailable = errors.New("participant already available")

	ErrNotAvailable = errors.New("participant not available")

	ErrParticipantsUnavailable = errors.New("one or more participants are not available")

	ErrBookingNotFound = errors.New("booking not found")

	ErrBookingExists = errors.New("booking id already in use")
)
