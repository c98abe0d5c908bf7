package batches

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/docent/pkg/repository"
)

// Domain errors for training batch operations.
var (
	ErrNotFound         = errors.New("batch not found")
	ErrDuplicate        = errors.New("batch already exists")
	ErrInvalidStatus    = errors.New("invalid batch status")
	ErrInvalidRequest   = errors.New("invalid batch request")
	ErrTrainingInFlight = errors.New("training already in flight for processor")
	ErrNoCandidates     = errors.New("no candidate documents to claim")
	ErrStaleTransition  = errors.New("batch status changed concurrently")
)

var dbErrors = repository.Errors{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   ErrInvalidRequest,
}

// MapHTTPStatus maps batch domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTrainingInFlight), errors.Is(err, ErrStaleTransition), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrNoCandidates):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
