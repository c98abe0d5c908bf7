package thresholds

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/docent/pkg/repository"
)

// Domain errors for training configuration operations.
var (
	ErrNotFound      = errors.New("training config not found")
	ErrDuplicate     = errors.New("training config already exists")
	ErrInvalidConfig = errors.New("invalid training config")
)

var dbErrors = repository.Errors{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   ErrInvalidConfig,
}

// MapHTTPStatus maps threshold domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidConfig) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
