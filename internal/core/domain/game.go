package domain

import "time"

// Game is a dice game document owned by a single player. The payload is
// opaque to the service; its fields are stored as-is.
type Game struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt *time.Time     `json:"-"`
}
