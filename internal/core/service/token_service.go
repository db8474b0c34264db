package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// MinSecretLength is the shortest HS256 signing secret accepted.
const MinSecretLength = 32

const defaultTokenTTL = time.Hour

// timeResolution is the granularity of iat and exp. NumericDates travel with
// microsecond digits so millisecond values survive the float decoding.
const timeResolution = time.Millisecond

func init() {
	jwt.TimePrecision = time.Microsecond
}

// tokenClaims is the JWT payload: sub, iat and exp plus the role list.
type tokenClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 session tokens. It holds no mutable
// state after construction and is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokenService(secret string, ttl time.Duration, issuer string) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("token service: secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	ttl = ttl.Truncate(timeResolution)
	if ttl <= 0 {
		return nil, errors.New("token service: ttl must be at least one millisecond")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, issuer: issuer}, nil
}

// Issue signs a token for subject valid from now until now+TTL.
func (s *TokenService) Issue(subject string, roles []string, now time.Time) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("issue token: %w: empty subject", domain.ErrValidation)
	}
	issuedAt := now.Truncate(timeResolution)
	claims := tokenClaims{
		Roles: append([]string{}, roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt(now)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature first and the expiry second, evaluating expiry
// against now. Any failure other than expiry is reported as ErrInvalidToken.
func (s *TokenService) Verify(token string, now time.Time) (*domain.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		// Decoded dates may come out a microsecond early; the exact
		// comparison happens below on the rounded value.
		jwt.WithLeeway(jwt.TimePrecision),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, domain.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	expiresAt := claims.ExpiresAt.Time.Round(timeResolution)
	if !now.Before(expiresAt) {
		return nil, domain.ErrExpiredToken
	}

	out := &domain.Claims{
		Subject:   claims.Subject,
		Roles:     claims.Roles,
		ExpiresAt: expiresAt,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.Round(timeResolution)
	}
	return out, nil
}

// ExpiresAt returns the expiry Issue would stamp on a token issued at now.
func (s *TokenService) ExpiresAt(now time.Time) time.Time {
	return now.Truncate(timeResolution).Add(s.ttl)
}
