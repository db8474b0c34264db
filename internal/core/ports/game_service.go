package ports

import (
	"context"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// GameService defines the use cases for dice game documents. Mutations are
// allowed only to the owner or to an admin.
type GameService interface {
	Create(ctx context.Context, requester domain.Principal, payload map[string]any) (*domain.Game, error)
	Get(ctx context.Context, id string) (*domain.Game, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Game, error)
	Update(ctx context.Context, id string, requester domain.Principal, patch map[string]any) (*domain.Game, error)
	Delete(ctx context.Context, id string, requester domain.Principal) error
	DeleteAllByOwner(ctx context.Context, ownerID string, requester domain.Principal) (int64, error)
}
