package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/dicegame/dice-api/internal/core/domain"
	"github.com/dicegame/dice-api/internal/core/ports"
)

// AuthService implements registration, login and password changes.
type AuthService struct {
	creds   *CredentialStore
	tokens  ports.TokenService
	limiter ports.LoginLimiter
	audit   ports.AuditRecorder
	logger  zerolog.Logger
}

// NewAuthService wires the auth use cases. limiter and audit may be nil.
func NewAuthService(
	creds *CredentialStore,
	tokens ports.TokenService,
	limiter ports.LoginLimiter,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		creds:   creds,
		tokens:  tokens,
		limiter: limiter,
		audit:   recorderOrNop(audit),
		logger:  logger,
	}
}

// Register creates a player account. Roles cannot be chosen by the caller.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	user, err := s.creds.Create(ctx, NewCredential{
		Username:    in.Username,
		Password:    in.Password,
		Roles:       []string{domain.RolePlayer},
		DisplayName: in.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEvent{
		Action:   domain.AuditUserRegistered,
		ActorID:  user.ID,
		TargetID: user.ID,
		At:       user.CreatedAt,
	})
	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Login checks the credentials and issues a session token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allowed(ctx, username)
		if err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("login limiter check failed, allowing attempt")
		} else if !allowed {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.creds.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordFailure(ctx, username)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.creds.VerifyPassword(user, password) {
		s.recordFailure(ctx, username)
		return nil, domain.ErrInvalidCredentials
	}
	if user.Disabled {
		return nil, domain.ErrUserDisabled
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, username); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("failed to reset login limiter")
		}
	}

	now := time.Now().UTC()
	token, err := s.tokens.Issue(user.ID, user.Roles, now)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEvent{
		Action:   domain.AuditUserLoggedIn,
		ActorID:  user.ID,
		TargetID: user.ID,
		At:       now,
	})
	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")

	return &ports.LoginResult{
		Token:     token,
		ExpiresAt: s.tokens.ExpiresAt(now),
		User:      user,
	}, nil
}

// ChangePassword replaces the requester's own password.
func (s *AuthService) ChangePassword(ctx context.Context, requester domain.Principal, oldPassword, newPassword string) error {
	if requester.Anonymous() {
		return domain.ErrUnauthenticated
	}
	if err := s.creds.ChangePassword(ctx, requester.Subject, oldPassword, newPassword); err != nil {
		return err
	}

	s.audit.Record(domain.AuditEvent{
		Action:   domain.AuditPasswordChanged,
		ActorID:  requester.Subject,
		TargetID: requester.Subject,
		At:       time.Now().UTC(),
	})
	s.logger.Info().Str("user_id", requester.Subject).Msg("password changed")
	return nil
}

// EnsureAdmin creates an admin account named username unless one exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (*domain.User, error) {
	existing, err := s.creds.FindByUsername(ctx, username)
	if err == nil {
		if !existing.HasRole(domain.RoleAdmin) {
			s.logger.Warn().Str("username", username).Msg("bootstrap admin username is taken by a non-admin user")
		}
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user, err := s.creds.Create(ctx, NewCredential{
		Username: username,
		Password: password,
		Roles:    []string{domain.RolePlayer, domain.RoleAdmin},
	})
	if errors.Is(err, domain.ErrDuplicateUsername) {
		// Another replica won the race.
		return s.creds.FindByUsername(ctx, username)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("username", username).Msg("bootstrap admin created")
	return user, nil
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, username); err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("failed to record login failure")
	}
}
