package handler

import (
	"time"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Username    string `json:"username"     validate:"required,min=3,max=32,printascii"`
	Password    string `json:"password"     validate:"required,min=4,max=72"`
	DisplayName string `json:"display_name" validate:"max=64"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=4,max=72,nefield=OldPassword"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      playerResponse `json:"user"`
}

// --- Players ---

type playerResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Roles       []string  `json:"roles"`
	Disabled    bool      `json:"disabled"`
	CreatedAt   time.Time `json:"created_at"`
}

type renamePlayerRequest struct {
	DisplayName string `json:"display_name" validate:"max=64"`
}

type purgeResponse struct {
	Deleted int64 `json:"deleted"`
}

// --- Games ---

type gameRequest struct {
	Payload map[string]any `json:"payload"`
}

type gameResponse struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// --- Domain → HTTP response ---

func toPlayerResponse(u *domain.User) playerResponse {
	return playerResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
		Disabled:    u.Disabled,
		CreatedAt:   u.CreatedAt.UTC(),
	}
}

func toPlayerResponses(users []*domain.User) []playerResponse {
	out := make([]playerResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toPlayerResponse(u))
	}
	return out
}

func toGameResponse(g *domain.Game) gameResponse {
	payload := g.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return gameResponse{
		ID:        g.ID,
		OwnerID:   g.OwnerID,
		Payload:   payload,
		CreatedAt: g.CreatedAt.UTC(),
		UpdatedAt: g.UpdatedAt.UTC(),
	}
}

func toGameResponses(games []*domain.Game) []gameResponse {
	out := make([]gameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, toGameResponse(g))
	}
	return out
}
