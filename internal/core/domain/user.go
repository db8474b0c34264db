package domain

import (
	"regexp"
	"slices"
	"time"
)

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

// AnonymousName is assigned when a display name normalises to nothing.
const AnonymousName = "Anonymous"

// User models a registered player. Users are never removed; Disabled blocks
// new logins while keeping ownership references intact. Tokens issued before
// the account was disabled stay valid until they expire.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRole reports whether the user carries role.
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

var nameNoise = regexp.MustCompile(`[\s\d]+`)

// NormalizeDisplayName strips whitespace and digits from name, falling back
// to AnonymousName when nothing is left.
func NormalizeDisplayName(name string) string {
	cleaned := nameNoise.ReplaceAllString(name, "")
	if cleaned == "" {
		return AnonymousName
	}
	return cleaned
}
