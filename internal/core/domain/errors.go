package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserDisabled       = errors.New("user disabled")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrValidation         = errors.New("validation failed")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrStoreUnavailable   = errors.New("store unavailable")

	// ErrNotFound is the parent of every "missing document" error; match it
	// with errors.Is to treat all of them uniformly.
	ErrNotFound     = errors.New("not found")
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	ErrGameNotFound = fmt.Errorf("game %w", ErrNotFound)
)
