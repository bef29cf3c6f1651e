package internal

import (
	"errors"
	"net/http"
)

var (
	ErrPermissionDenied          = errors.New("health data sharing denied")
	ErrCapabilityUnavailable     = errors.New("health data store unavailable")
	ErrPersistenceFailure        = errors.New("state persistence failed")
	ErrAuthorizationUndetermined = errors.New("health data sharing not yet authorized")
	ErrSubmissionFailed          = errors.New("sample submission failed")
	ErrReviewNotFound            = errors.New("review not found")
	ErrInvalidInterval           = errors.New("invalid interval")
)

type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// StatusFor maps a domain error to the HTTP status the API reports for it.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrAuthorizationUndetermined):
		return http.StatusForbidden
	case errors.Is(err, ErrCapabilityUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrReviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInterval):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSubmissionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
