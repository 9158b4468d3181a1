package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/modconsole/internal/backend/domain"
	"github.com/aussiebroadwan/modconsole/internal/backend/store"
	"github.com/aussiebroadwan/modconsole/pkg/cryptox"
	"github.com/aussiebroadwan/modconsole/pkg/idx"
)

type UserService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, id)
}

// SeedInput describes an account created at startup.
type SeedInput struct {
	Email      string
	Password   string
	Username   string
	Role       string
	TOTPSecret string
}

// EnsureUser creates the seeded account if its email is not registered yet.
// It reports whether a user was created.
func (s *UserService) EnsureUser(ctx context.Context, in SeedInput) (bool, error) {
	_, err := s.Store.Users().GetUserByEmail(ctx, in.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return false, err
	}

	username := in.Username
	if username == "" {
		username, _, _ = strings.Cut(in.Email, "@")
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	switch role {
	case domain.RoleUser, domain.RoleModerator, domain.RoleAdmin:
	default:
		role = domain.RoleUser
	}

	err = s.Store.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Email:        in.Email,
		Username:     username,
		FirstName:    username,
		PasswordHash: hash,
		Role:         role,
		TOTPSecret:   in.TOTPSecret,
		Verified:     true,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
