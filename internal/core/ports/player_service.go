package ports

import (
	"context"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// PlayerService exposes user profiles and account status management.
type PlayerService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Rename(ctx context.Context, requester domain.Principal, id, name string) (*domain.User, error)
	SetDisabled(ctx context.Context, requester domain.Principal, id string, disabled bool) error
}
