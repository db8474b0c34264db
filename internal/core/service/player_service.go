package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dicegame/dice-api/internal/core/domain"
	"github.com/dicegame/dice-api/internal/core/ports"
)

type PlayerService struct {
	creds  *CredentialStore
	audit  ports.AuditRecorder
	logger zerolog.Logger
}

func NewPlayerService(creds *CredentialStore, audit ports.AuditRecorder, logger zerolog.Logger) *PlayerService {
	return &PlayerService{creds: creds, audit: recorderOrNop(audit), logger: logger}
}

func (s *PlayerService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.creds.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

func (s *PlayerService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.creds.FindByID(ctx, id)
}

// Rename sets the display name of player id. Only the player or an admin may
// rename.
func (s *PlayerService) Rename(ctx context.Context, requester domain.Principal, id, name string) (*domain.User, error) {
	if requester.Anonymous() {
		return nil, domain.ErrUnauthenticated
	}
	if !requester.CanModify(id) {
		return nil, domain.ErrForbidden
	}

	user, err := s.creds.UpdateDisplayName(ctx, id, name)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEvent{
		Action:   domain.AuditUserRenamed,
		ActorID:  requester.Subject,
		TargetID: id,
		At:       user.UpdatedAt,
		Details:  map[string]any{"display_name": user.DisplayName},
	})
	return user, nil
}

// SetDisabled soft-disables or re-enables an account. Admin only; an admin
// cannot disable their own account.
func (s *PlayerService) SetDisabled(ctx context.Context, requester domain.Principal, id string, disabled bool) error {
	if requester.Anonymous() {
		return domain.ErrUnauthenticated
	}
	if !requester.HasRole(domain.RoleAdmin) {
		return domain.ErrForbidden
	}
	if disabled && requester.Subject == id {
		return fmt.Errorf("%w: cannot disable your own account", domain.ErrValidation)
	}

	if err := s.creds.SetDisabled(ctx, id, disabled); err != nil {
		return err
	}

	action := domain.AuditUserEnabled
	if disabled {
		action = domain.AuditUserDisabled
	}
	s.audit.Record(domain.AuditEvent{
		Action:   action,
		ActorID:  requester.Subject,
		TargetID: id,
		At:       time.Now().UTC(),
	})
	s.logger.Info().Str("user_id", id).Bool("disabled", disabled).Str("by", requester.Subject).Msg("account status changed")
	return nil
}
