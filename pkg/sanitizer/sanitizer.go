// Package sanitizer normalizes externally-supplied identifiers before
// validation and storage.
//
// All functions are idempotent - applying them twice produces the same
// result. Invalid input is handled by returning the cleaned remainder
// or an empty string, never an error.
package sanitizer

import (
	"strings"
	"unicode"
)

const maxIdentifierLen = 128

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func stripControl(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

func capLength(s string) string {
	if len(s) > maxIdentifierLen {
		return s[:maxIdentifierLen]
	}
	return s
}

// SanitizeIdentifier cleans slot, participant, and booking identifiers.
// Identifiers are opaque keys, so nothing beyond whitespace, control
// characters, and unbounded length is rewritten.
func SanitizeIdentifier(input string) string {
	p := Pipeline{
		trim,
		stripControl,
		capLength,
	}
	return p.Apply(input)
}

// SanitizeStatus normalizes a read-model status filter.
func SanitizeStatus(input string) string {
	p := Pipeline{
		trim,
		stripControl,
		strings.ToLower,
	}
	return p.Apply(input)
}
