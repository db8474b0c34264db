package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dicegame/dice-api/internal/core/domain"
	"github.com/dicegame/dice-api/internal/core/ports"
)

const (
	// maxPayloadFields bounds the number of top-level payload fields per game.
	maxPayloadFields = 64
	maxPayloadDepth  = 16
)

type GameService struct {
	repo   ports.GameRepository
	audit  ports.AuditRecorder
	logger zerolog.Logger
}

func NewGameService(repo ports.GameRepository, audit ports.AuditRecorder, logger zerolog.Logger) *GameService {
	return &GameService{repo: repo, audit: recorderOrNop(audit), logger: logger}
}

// Create stores a new game owned by the requester.
func (s *GameService) Create(ctx context.Context, requester domain.Principal, payload map[string]any) (*domain.Game, error) {
	if requester.Anonymous() {
		return nil, domain.ErrUnauthenticated
	}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = map[string]any{}
	}

	now := time.Now().UTC()
	game := &domain.Game{
		ID:        uuid.NewString(),
		OwnerID:   requester.Subject,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, game); err != nil {
		s.logger.Error().Err(err).Str("owner_id", requester.Subject).Msg("failed to create game")
		return nil, err
	}

	s.audit.Record(domain.AuditEvent{
		Action:   domain.AuditGameCreated,
		ActorID:  requester.Subject,
		TargetID: game.ID,
		At:       now,
	})
	s.logger.Info().Str("game_id", game.ID).Str("owner_id", game.OwnerID).Msg("game created")
	return game, nil
}

func (s *GameService) Get(ctx context.Context, id string) (*domain.Game, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByOwner returns the owner's games, newest first. The result is never nil.
func (s *GameService) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Game, error) {
	games, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if games == nil {
		games = []*domain.Game{}
	}
	return games, nil
}

// Update merges patch into the game's payload. Ownership is checked before the
// patch is looked at, so a non-owner always gets ErrForbidden.
func (s *GameService) Update(ctx context.Context, id string, requester domain.Principal, patch map[string]any) (*domain.Game, error) {
	game, err := s.authorize(ctx, id, requester)
	if err != nil {
		return nil, err
	}
	if err := validatePayload(patch); err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return game, nil
	}

	now := time.Now().UTC()
	updated, err := s.repo.Update(ctx, id, game.OwnerID, patch, now)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEvent{
		Action:   domain.AuditGameUpdated,
		ActorID:  requester.Subject,
		TargetID: id,
		At:       now,
	})
	return updated, nil
}

func (s *GameService) Delete(ctx context.Context, id string, requester domain.Principal) error {
	game, err := s.authorize(ctx, id, requester)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.repo.Delete(ctx, id, game.OwnerID, now); err != nil {
		return err
	}

	s.audit.Record(domain.AuditEvent{
		Action:   domain.AuditGameDeleted,
		ActorID:  requester.Subject,
		TargetID: id,
		At:       now,
	})
	s.logger.Info().Str("game_id", id).Str("by", requester.Subject).Msg("game deleted")
	return nil
}

// DeleteAllByOwner removes every game of ownerID and returns how many went.
func (s *GameService) DeleteAllByOwner(ctx context.Context, ownerID string, requester domain.Principal) (int64, error) {
	if requester.Anonymous() {
		return 0, domain.ErrUnauthenticated
	}
	if !requester.CanModify(ownerID) {
		return 0, domain.ErrForbidden
	}

	now := time.Now().UTC()
	n, err := s.repo.DeleteByOwner(ctx, ownerID, now)
	if err != nil {
		return 0, err
	}

	s.audit.Record(domain.AuditEvent{
		Action:   domain.AuditGamesPurged,
		ActorID:  requester.Subject,
		TargetID: ownerID,
		At:       now,
		Details:  map[string]any{"count": n},
	})
	s.logger.Info().Str("owner_id", ownerID).Int64("count", n).Str("by", requester.Subject).Msg("games purged")
	return n, nil
}

func (s *GameService) authorize(ctx context.Context, id string, requester domain.Principal) (*domain.Game, error) {
	if requester.Anonymous() {
		return nil, domain.ErrUnauthenticated
	}
	game, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.CanModify(game.OwnerID) {
		s.logger.Warn().Str("game_id", id).Str("requester", requester.Subject).Msg("ownership check failed")
		return nil, domain.ErrForbidden
	}
	return game, nil
}

// validatePayload rejects field names the document store would interpret as
// operators or paths, at any nesting level.
func validatePayload(payload map[string]any) error {
	if len(payload) > maxPayloadFields {
		return fmt.Errorf("%w: payload has more than %d fields", domain.ErrValidation, maxPayloadFields)
	}
	return validateFields(payload, "", 0)
}

func validateFields(doc map[string]any, prefix string, depth int) error {
	for k, v := range doc {
		if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			return fmt.Errorf("%w: invalid payload field %q", domain.ErrValidation, prefix+k)
		}
		if err := validateValue(v, prefix+k+".", depth+1); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(v any, prefix string, depth int) error {
	switch val := v.(type) {
	case map[string]any:
		if depth > maxPayloadDepth {
			return fmt.Errorf("%w: payload nested deeper than %d levels", domain.ErrValidation, maxPayloadDepth)
		}
		return validateFields(val, prefix, depth)
	case []any:
		if depth > maxPayloadDepth {
			return fmt.Errorf("%w: payload nested deeper than %d levels", domain.ErrValidation, maxPayloadDepth)
		}
		for i, item := range val {
			if err := validateValue(item, prefix+strconv.Itoa(i)+".", depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
