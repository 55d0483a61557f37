package errors

import "errors"

var (
	ErrRowNotFound   = errors.New("slot row not found")
	ErrInvalidStatus = errors.New("invalid status filter")
)
