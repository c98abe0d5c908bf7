package storage

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Sentinel errors shared by every provider.
var (
	ErrNotFound   = errors.New("blob not found")
	ErrEmptyKey   = errors.New("storage key must not be empty")
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)

// MapHTTPStatus translates a storage failure into a response status.
// Provider timeouts surface as 504 so callers can tell them from bad keys.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// validateKey rejects keys that are empty, rooted, or contain "..".
func validateKey(key string) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case strings.HasPrefix(key, "/"), strings.Contains(key, ".."):
		return ErrInvalidKey
	}
	return nil
}
