package service

import (
	"context"
	"errors"

	"avfall_backend/internal/auth/repository"
	"avfall_backend/platform/apperr"

	"github.com/google/uuid"
)

// RoleUser is the role of every user without a stored profile.
const RoleUser = "user"

// Profile is a user's stored role. Tokens are issued by the external auth
// provider; this service only knows which role a user holds.
type Profile struct {
	UserID uuid.UUID
	Role   string
}

// Roles is the profile storage the service needs.
type Roles interface {
	GetRole(ctx context.Context, userID uuid.UUID) (string, error)
	SetRole(ctx context.Context, userID uuid.UUID, role string) (string, error)
}

type Service struct {
	repo Roles
}

func New(repo Roles) *Service {
	return &Service{repo: repo}
}

// RoleOf returns the user's stored role. Users without a profile are plain users.
func (s *Service) RoleOf(ctx context.Context, userID uuid.UUID) (string, error) {
	role, err := s.repo.GetRole(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return RoleUser, nil
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "could not load profile", err).WithOp("auth.RoleOf")
	}
	return role, nil
}

// GetMe returns the caller's profile.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (Profile, error) {
	role, err := s.RoleOf(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{UserID: userID, Role: role}, nil
}

// SetRole stores role on the user's profile, creating it when needed.
func (s *Service) SetRole(ctx context.Context, userID uuid.UUID, role string) (Profile, error) {
	stored, err := s.repo.SetRole(ctx, userID, role)
	if err != nil {
		return Profile{}, apperr.Wrap(apperr.KindInternal, "could not store profile", err).WithOp("auth.SetRole")
	}
	return Profile{UserID: userID, Role: stored}, nil
}
