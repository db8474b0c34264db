package ports

import (
	"time"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// TokenService issues and verifies stateless session tokens.
type TokenService interface {
	Issue(subject string, roles []string, now time.Time) (string, error)
	// Verify returns domain.ErrInvalidToken or domain.ErrExpiredToken on failure.
	Verify(token string, now time.Time) (*domain.Claims, error)
	// ExpiresAt returns the expiry a token issued at now would carry.
	ExpiresAt(now time.Time) time.Time
}
