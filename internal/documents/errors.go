package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/docent/pkg/repository"
)

// Domain errors for document operations.
var (
	ErrNotFound       = errors.New("document not found")
	ErrDuplicate      = errors.New("document already exists")
	ErrInvalidStatus  = errors.New("invalid document status")
	ErrInvalidRequest = errors.New("invalid request")
)

var dbErrors = repository.Errors{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   ErrInvalidRequest,
}

// MapHTTPStatus maps document domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidStatus) || errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
