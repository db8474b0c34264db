package ports

import (
	"context"
	"time"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// GameRepository persists games. Writes match on both id and ownerID, so
// callers pass the owner recorded on the game, even when acting as admin.
type GameRepository interface {
	Create(ctx context.Context, game *domain.Game) error
	FindByID(ctx context.Context, id string) (*domain.Game, error)
	// ListByOwner returns the owner's games, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Game, error)
	// Update merges patch into the game's payload and returns the result.
	Update(ctx context.Context, id, ownerID string, patch map[string]any, at time.Time) (*domain.Game, error)
	Delete(ctx context.Context, id, ownerID string, at time.Time) error
	DeleteByOwner(ctx context.Context, ownerID string, at time.Time) (int64, error)
}
