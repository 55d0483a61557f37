package http

import (
	"net/http"

	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/sanitizer"
)

// ExtractStatus reads the required status query parameter and normalizes it.
func ExtractStatus(r *http.Request) (string, error) {
	status := sanitizer.SanitizeStatus(r.URL.Query().Get("status"))
	if status == "" {
		return "", apperrors.InvalidInput("status query parameter is required")
	}
	return status, nil
}
