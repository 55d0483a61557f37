package kafka

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"permanent error", NewPermanentError("undecodable payload", nil), ErrorTypePermanent},
		{"wrapped permanent error", fmt.Errorf("handling failed: %w", NewPermanentError("bad schema", nil)), ErrorTypePermanent},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{"deadline exceeded", errors.New("context deadline exceeded"), ErrorTypeTransient},
		{"unclassifiable defaults to transient", errors.New("something odd happened"), ErrorTypeTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := errors.New("i/o timeout")
	permanent := NewPermanentError("unknown event payload", nil)

	tests := []struct {
		name           string
		err            error
		currentRetries int
		maxRetries     int
		want           bool
	}{
		{"transient below limit", transient, 0, 3, true},
		{"transient at limit", transient, 3, 3, false},
		{"permanent never retries", permanent, 0, 3, false},
		{"nil never retries", nil, 0, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err, tt.currentRetries, tt.maxRetries); got != tt.want {
				t.Errorf("ShouldRetry = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPermanentErrorMessage(t *testing.T) {
	bare := NewPermanentError("bad payload", nil)
	if bare.Error() != "bad payload" {
		t.Errorf("Error() = %q", bare.Error())
	}

	cause := errors.New("unexpected end of JSON input")
	wrapped := NewPermanentError("bad payload", cause)
	if wrapped.Error() != "bad payload: unexpected end of JSON input" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Unwrap should expose the cause")
	}
}
