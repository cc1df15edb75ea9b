// Package errors defines the application error taxonomy. Load failures and
// configuration problems surface as "search unavailable" states that callers
// must keep distinct from a legitimate empty result.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSearchUnavailable means the snapshot could not be loaded or the
	// query produced no usable tokens. Distinct from an empty result.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrQueryTooShort is returned for queries below the minimum length.
	ErrQueryTooShort = errors.New("query too short")
	// ErrSnapshotLoad wraps transient failures of the paginated bulk pull
	// after the retry ceiling is exhausted.
	ErrSnapshotLoad = errors.New("snapshot load failed")
	// ErrConfiguration means credentials or required settings are missing.
	// Never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrUnauthorized is returned for a missing or wrong admin secret.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidInput covers malformed request parameters.
	ErrInvalidInput = errors.New("invalid input")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrQueryTooShort), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrSearchUnavailable), errors.Is(err, ErrSnapshotLoad):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
