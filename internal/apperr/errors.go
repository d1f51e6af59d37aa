// Package apperr defines the domain error taxonomy. Every validation or
// authorization failure in the services is one of these sentinels, so callers
// branch with errors.Is instead of matching message strings. Storage-level
// constraint violations that slip past application checks are translated to
// ErrConflict at the repository boundary; genuinely unexpected infrastructure
// faults surface as ErrUnavailable and are safe to retry.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("you do not have access to this resource")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input data")

	ErrInvalidCode        = errors.New("invalid invite code")
	ErrCodeAlreadyUsed    = errors.New("this invite code has already been used")
	ErrCodeExpired        = errors.New("this invite code has expired")
	ErrAlreadyConnected   = errors.New("you are already connected to this teacher")
	ErrCodeSpaceExhausted = errors.New("failed to generate a unique invite code")

	ErrConflict    = errors.New("conflict with concurrent change")
	ErrUnavailable = errors.New("service temporarily unavailable")
)

// Wrap attaches context to a sentinel while keeping errors.Is working.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}

// HTTPStatus maps a domain error to its HTTP status code. Unknown errors map
// to 500 and should be reported, not shown to the user verbatim.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrCodeAlreadyUsed),
		errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrAlreadyConnected):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrCodeSpaceExhausted):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// IsDomain reports whether err belongs to the taxonomy, i.e. its message is
// stable and safe to return to the client.
func IsDomain(err error) bool {
	for _, s := range []error{
		ErrUnauthenticated, ErrUnauthorized, ErrNotFound, ErrInvalidInput,
		ErrInvalidCode, ErrCodeAlreadyUsed, ErrCodeExpired,
		ErrAlreadyConnected, ErrCodeSpaceExhausted, ErrConflict, ErrUnavailable,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
