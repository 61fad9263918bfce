package repository

import (
	"context"
	"errors"
	"fmt"

	"beatstore/model"

	"gorm.io/gorm"
)

// PurchaseRepository defines the interface for purchase records.
type PurchaseRepository interface {
	// Create records a purchase. Returns ErrAlreadyPurchased when the user
	// already owns the beat; no row is written in that case.
	Create(ctx context.Context, purchase *model.Purchase) error
	Exists(ctx context.Context, userID, beatID int64) (bool, error)
	ByUser(ctx context.Context, userID int64) ([]*model.Purchase, error)
}

// gormPurchaseRepository implements PurchaseRepository on GORM.
type gormPurchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository creates a GORM-backed purchase repository.
func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &gormPurchaseRepository{db: db}
}

// Create records a purchase after checking for an existing one. The unique
// index on (user_id, beat_id) closes the window between check and insert, so
// a concurrent duplicate surfaces as a constraint error rather than a second row.
func (r *gormPurchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	exists, err := r.Exists(ctx, purchase.UserID, purchase.BeatID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyPurchased
	}
	return r.insert(ctx, purchase)
}

// insert writes the purchase row. A duplicate that slipped past the
// existence check hits the unique index and still reports ErrAlreadyPurchased.
func (r *gormPurchaseRepository) insert(ctx context.Context, purchase *model.Purchase) error {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyPurchased
		}
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

// Exists reports whether a purchase exists for the (user, beat) pair.
func (r *gormPurchaseRepository) Exists(ctx context.Context, userID, beatID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("user_id = ? AND beat_id = ?", userID, beatID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check purchase for user %d beat %d: %w", userID, beatID, err)
	}
	return count > 0, nil
}

// ByUser retrieves a user's purchases with their beats, newest first.
func (r *gormPurchaseRepository) ByUser(ctx context.Context, userID int64) ([]*model.Purchase, error) {
	var purchases []*model.Purchase
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Beat").
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases for user %d: %w", userID, err)
	}
	return purchases, nil
}
