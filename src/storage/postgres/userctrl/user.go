package userctrl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"comptadoc/src/core/user"
)

type userRow struct {
	ID           string `gorm:"primaryKey;type:uuid"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"not null;uniqueIndex"`
	Role         string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string {
	return "users"
}

// Service implements user.Repository over PostgreSQL.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (*Service, error) {
	if err := db.AutoMigrate(&userRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate users table: %w", err)
	}
	return &Service{db: db}, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*user.User, error) {
	var row userRow
	result := s.db.WithContext(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", result.Error)
	}
	return toDomain(&row), nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var row userRow
	result := s.db.WithContext(ctx).First(&row, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", result.Error)
	}
	return toDomain(&row), nil
}

func (s *Service) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	result := s.db.WithContext(ctx).Model(&userRow{}).Where("id IN ?", ids).Pluck("id", &found)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to resolve user ids: %w", result.Error)
	}

	set := make(map[string]bool, len(found))
	for _, id := range found {
		set[id] = true
	}
	ordered := make([]string, 0, len(found))
	for _, id := range ids {
		if set[id] {
			ordered = append(ordered, id)
			set[id] = false
		}
	}
	return ordered, nil
}

func (s *Service) Save(ctx context.Context, u *user.User) error {
	row := &userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	return nil
}

func toDomain(row *userRow) *user.User {
	return &user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         user.Role(row.Role),
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
