package apperrors

import (
	"errors"
	"net/http"
)

// Error kinds shared by all services. Services wrap these with context via
// fmt.Errorf("...: %w", kind); handlers map the kind to an HTTP status.
var (
	ErrValidation        = errors.New("validation failed")
	ErrAuthorization     = errors.New("not authorized")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate")
	ErrPayment           = errors.New("payment failed")
)

// Status maps an error kind to its HTTP status code. Unknown errors are
// treated as internal.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidState), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrPayment):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
