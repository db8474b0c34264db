package ports

import (
	"context"
	"time"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// UserRepository persists users. Implementations must enforce username
// uniqueness atomically and report violations as domain.ErrDuplicateUsername.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// List returns every user ordered by creation time, oldest first.
	List(ctx context.Context) ([]*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error
	UpdateDisplayName(ctx context.Context, id, name string, at time.Time) (*domain.User, error)
	SetDisabled(ctx context.Context, id string, disabled bool, at time.Time) error
}
