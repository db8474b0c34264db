package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// principal returns the identity established by the Auth middleware. Handlers
// on authenticated routes fail fast with ErrUnauthenticated if it is missing,
// which only happens when the middleware was not mounted.
func principal(c echo.Context) (domain.Principal, error) {
	p := domain.PrincipalFrom(c.Request().Context())
	if p.Anonymous() {
		return p, domain.ErrUnauthenticated
	}
	return p, nil
}

// outcome labels err for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	case errors.Is(err, domain.ErrUserDisabled):
		return "disabled"
	case errors.Is(err, domain.ErrDuplicateUsername):
		return "duplicate"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
