package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dicegame/dice-api/internal/api/metrics"
	"github.com/dicegame/dice-api/internal/core/domain"
)

// PrincipalKey is the echo.Context key holding the request's domain.Principal.
const PrincipalKey = "principal"

const bearerScheme = "bearer"

// TokenVerifier checks a raw session token.
type TokenVerifier interface {
	Verify(token string, now time.Time) (*domain.Claims, error)
}

// AuthConfig configures the Auth middleware.
type AuthConfig struct {
	Verifier TokenVerifier
	Policy   Policy
	// Now defaults to time.Now.
	Now func() time.Time
}

// Auth resolves the caller's identity from the bearer token and enforces the
// route policy. It must be registered with Echo#Use so that it runs after
// routing and sees the matched route pattern.
//
// A token that is present but invalid or expired is rejected even on public
// routes. Without a token the request continues anonymously if the route is
// public and is rejected otherwise.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rule := cfg.Policy.Rule(c.Request().Method, c.Path())

			principal, err := resolvePrincipal(cfg.Verifier, c.Request().Header.Get(echo.HeaderAuthorization), now())
			if err != nil {
				return err
			}

			if err := authorize(rule, principal); err != nil {
				reason := "forbidden"
				if errors.Is(err, domain.ErrUnauthenticated) {
					reason = "unauthenticated"
				}
				metrics.RequestsRejectedTotal.WithLabelValues(reason).Inc()
				return err
			}

			if !principal.Anonymous() {
				c.Set(PrincipalKey, principal)
				c.SetRequest(c.Request().WithContext(domain.WithPrincipal(c.Request().Context(), principal)))
			}
			return next(c)
		}
	}
}

// resolvePrincipal returns the anonymous principal when header is empty.
func resolvePrincipal(v TokenVerifier, header string, now time.Time) (domain.Principal, error) {
	if header == "" {
		return domain.Principal{}, nil
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, bearerScheme) || token == "" {
		metrics.TokenVerificationsTotal.WithLabelValues("malformed_header").Inc()
		return domain.Principal{}, domain.ErrUnauthenticated
	}

	claims, err := v.Verify(token, now)
	if err != nil {
		if errors.Is(err, domain.ErrExpiredToken) {
			metrics.TokenVerificationsTotal.WithLabelValues("expired").Inc()
			return domain.Principal{}, domain.ErrExpiredToken
		}
		metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
		return domain.Principal{}, domain.ErrInvalidToken
	}

	metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()
	return domain.Principal{Subject: claims.Subject, Roles: claims.Roles}, nil
}
