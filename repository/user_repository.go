package repository

import (
	"context"
	"fmt"

	"beatstore/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// gormUserRepository implements UserRepository on GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a GORM-backed user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// Create adds a new user. Username is checked before email, so a request
// that collides on both reports the username conflict.
func (r *gormUserRepository) Create(ctx context.Context, user *model.User) error {
	existing, err := r.GetByUsername(ctx, user.Username)
	if err != nil {
		return fmt.Errorf("failed to check username %q: %w", user.Username, err)
	}
	if existing != nil {
		return ErrDuplicateUsername
	}

	existing, err = r.GetByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("failed to check email %q: %w", user.Email, err)
	}
	if existing != nil {
		return ErrDuplicateEmail
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID. Returns nil when not found.
func (r *gormUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by ID %d: %w", id, err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username. Returns nil when not found.
func (r *gormUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by username %q: %w", username, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email address. Returns nil when not found.
func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by email %q: %w", email, err)
	}
	return &user, nil
}
