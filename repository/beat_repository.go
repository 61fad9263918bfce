package repository

import (
	"context"
	"fmt"

	"beatstore/model"

	"gorm.io/gorm"
)

// MarketplacePageSize is the fixed page size of the marketplace view.
const MarketplacePageSize = 12

// BeatRepository defines the interface for beat catalog operations.
type BeatRepository interface {
	Create(ctx context.Context, beat *model.Beat) error
	GetByID(ctx context.Context, id int64) (*model.Beat, error)
	ByUser(ctx context.Context, userID int64) ([]*model.Beat, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Beat, error)
	Browse(ctx context.Context, genre, sort string, page, pageSize int) ([]*model.Beat, int64, error)
	Search(ctx context.Context, query string) ([]*model.Beat, error)
	DistinctGenres(ctx context.Context) ([]string, error)
}

// gormBeatRepository implements BeatRepository on GORM.
type gormBeatRepository struct {
	db *gorm.DB
}

// NewBeatRepository creates a GORM-backed beat repository.
func NewBeatRepository(db *gorm.DB) BeatRepository {
	return &gormBeatRepository{db: db}
}

// Create adds a new beat to the catalog.
func (r *gormBeatRepository) Create(ctx context.Context, beat *model.Beat) error {
	if err := r.db.WithContext(ctx).Create(beat).Error; err != nil {
		return fmt.Errorf("failed to create beat: %w", err)
	}
	return nil
}

// GetByID retrieves a beat by ID. Returns nil when not found.
func (r *gormBeatRepository) GetByID(ctx context.Context, id int64) (*model.Beat, error) {
	var beat model.Beat
	err := r.db.WithContext(ctx).First(&beat, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query beat by ID %d: %w", id, err)
	}
	return &beat, nil
}

// ByUser retrieves all beats uploaded by a user, newest first.
func (r *gormBeatRepository) ByUser(ctx context.Context, userID int64) ([]*model.Beat, error) {
	var beats []*model.Beat
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&beats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query beats for user %d: %w", userID, err)
	}
	return beats, nil
}

// ListRecent retrieves the most recently uploaded beats.
func (r *gormBeatRepository) ListRecent(ctx context.Context, limit int) ([]*model.Beat, error) {
	var beats []*model.Beat
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&beats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent beats: %w", err)
	}
	return beats, nil
}

// Browse retrieves a page of the catalog with an optional exact genre filter
// and one of the marketplace sort orders. It also returns the total number of
// matching beats for pagination. An out-of-range page yields an empty page.
func (r *gormBeatRepository) Browse(ctx context.Context, genre, sort string, page, pageSize int) ([]*model.Beat, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = MarketplacePageSize
	}

	query := r.db.WithContext(ctx).Model(&model.Beat{})
	if genre != "" {
		query = query.Where("genre = ?", genre)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count beats: %w", err)
	}

	switch sort {
	case model.SortPriceLow:
		query = query.Order("price ASC")
	case model.SortPriceHigh:
		query = query.Order("price DESC")
	default: // newest
		query = query.Order("created_at DESC")
	}

	var beats []*model.Beat
	err := query.
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&beats).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to browse beats: %w", err)
	}
	return beats, total, nil
}

// Search retrieves beats whose title, description or genre contains the query
// string. An empty query yields an empty result, not the full catalog.
func (r *gormBeatRepository) Search(ctx context.Context, query string) ([]*model.Beat, error) {
	if query == "" {
		return nil, nil
	}

	pattern := "%" + escapeLike(query) + "%"
	var beats []*model.Beat
	err := r.db.WithContext(ctx).
		Where("title LIKE ? ESCAPE '\\' OR description LIKE ? ESCAPE '\\' OR genre LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern).
		Find(&beats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search beats for %q: %w", query, err)
	}
	return beats, nil
}

// DistinctGenres retrieves the distinct non-empty genres in the catalog.
func (r *gormBeatRepository) DistinctGenres(ctx context.Context) ([]string, error) {
	var genres []string
	err := r.db.WithContext(ctx).
		Model(&model.Beat{}).
		Distinct().
		Where("genre <> ''").
		Order("genre ASC").
		Pluck("genre", &genres).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct genres: %w", err)
	}
	return genres, nil
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
// The queries using it declare backslash as the escape character, which is
// not the default on every backend.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
