package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dicegame/dice-api/internal/core/domain"
	"github.com/dicegame/dice-api/internal/core/ports"
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// NewCredential describes a user to be created.
type NewCredential struct {
	Username    string
	Password    string
	Roles       []string
	DisplayName string
}

// CredentialStore owns user identities and password hashes. Plaintext
// passwords only ever pass through it on their way to bcrypt.
type CredentialStore struct {
	repo ports.UserRepository
	cost int
}

// NewCredentialStore returns a store hashing with the given bcrypt cost;
// cost <= 0 selects bcrypt.DefaultCost.
func NewCredentialStore(repo ports.UserRepository, cost int) *CredentialStore {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &CredentialStore{repo: repo, cost: cost}
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.FindByUsername(ctx, username)
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CredentialStore) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// Create hashes the password and inserts the user. A username collision
// surfaces as domain.ErrDuplicateUsername and leaves the existing user intact.
func (s *CredentialStore) Create(ctx context.Context, in NewCredential) (*domain.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	roles, err := normalizeRoles(in.Roles)
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Username
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		DisplayName:  domain.NormalizeDisplayName(displayName),
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyPassword compares plaintext with the stored hash in constant time.
func (s *CredentialStore) VerifyPassword(user *domain.User, plaintext string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(plaintext)) == nil
}

// ChangePassword replaces the user's hash after checking the current password.
func (s *CredentialStore) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.VerifyPassword(user, oldPassword) {
		return domain.ErrInvalidCredentials
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdatePasswordHash(ctx, userID, hash, time.Now().UTC())
}

func (s *CredentialStore) UpdateDisplayName(ctx context.Context, userID, name string) (*domain.User, error) {
	return s.repo.UpdateDisplayName(ctx, userID, domain.NormalizeDisplayName(name), time.Now().UTC())
}

func (s *CredentialStore) SetDisabled(ctx context.Context, userID string, disabled bool) error {
	return s.repo.SetDisabled(ctx, userID, disabled, time.Now().UTC())
}

func (s *CredentialStore) hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password exceeds %d bytes", domain.ErrValidation, maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

var errUnknownRole = errors.New("unknown role")

// normalizeRoles validates roles, drops duplicates and defaults to player.
func normalizeRoles(roles []string) ([]string, error) {
	if len(roles) == 0 {
		return []string{domain.RolePlayer}, nil
	}
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r != domain.RolePlayer && r != domain.RoleAdmin {
			return nil, fmt.Errorf("%w: %w %q", domain.ErrValidation, errUnknownRole, r)
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}
