package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrInvalidRole   = errors.New("invalid role")
	ErrEmailRequired = errors.New("email is required")
)

// Repository is the persistence boundary for users.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
	Save(ctx context.Context, u *User) error
}

// Service manages the user directory.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByID resolves a user id.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// Create registers a new user with the given role.
func (s *Service) Create(ctx context.Context, name, email, passwordHash string, role Role) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	u := &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return u, nil
}

// ExistingIDs filters ids down to those that resolve to users, preserving
// request order.
func (s *Service) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	return s.repo.ExistingIDs(ctx, ids)
}
