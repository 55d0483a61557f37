package kafka

import (
	"errors"
	"strings"
)

var (
	ErrProducerClosed = errors.New("kafka producer is closed")

	ErrConsumerClosed = errors.New("kafka consumer is closed")

	ErrEmptyKey = errors.New("message key cannot be empty")

	ErrEmptyValue = errors.New("message value cannot be empty")
)

// ErrorType classifies a processing failure for retry purposes.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransient covers network issues and timeouts; retrying
	// may succeed.
	ErrorTypeTransient
	// ErrorTypePermanent covers malformed payloads and schema
	// mismatches; retrying cannot succeed.
	ErrorTypePermanent
)

// PermanentError marks a failure that must not be retried, typically an
// undecodable payload headed for the DLQ.
type PermanentError struct {
	Message string
	Err     error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func NewPermanentError(message string, err error) *PermanentError {
	return &PermanentError{Message: message, Err: err}
}

var transientPatterns = []string{
	"connection refused",
	"timeout",
	"deadline exceeded",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"connection reset",
	"i/o timeout",
	"temporary failure",
}

// ClassifyError decides whether a handler failure is worth retrying.
// Unclassifiable errors default to transient: dropping a forwarded slot
// event silently is worse than retrying a doomed one into the DLQ.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return ErrorTypePermanent
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return ErrorTypeTransient
		}
	}

	return ErrorTypeTransient
}

// ShouldRetry reports whether a failed message should be reprocessed.
func ShouldRetry(err error, currentRetries, maxRetries int) bool {
	if err == nil {
		return false
	}
	if currentRetries >= maxRetries {
		return false
	}
	return ClassifyError(err) == ErrorTypeTransient
}
