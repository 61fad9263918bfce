package repository

import (
	"context"
	"testing"
	"time"

	"beatstore/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// In-memory SQLite is per-connection; keep the pool at one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Beat{}, &model.Purchase{}))
	return db
}

func createTestUser(t *testing.T, repo UserRepository, username, email string) *model.User {
	t.Helper()

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserRepositoryDuplicates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createTestUser(t, repo, "alice", "a@x.com")

	// Username conflict wins even when the email also collides.
	err := repo.Create(ctx, &model.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	err = repo.Create(ctx, &model.User{Username: "bob", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	// A distinct username and email registers fine.
	err = repo.Create(ctx, &model.User{Username: "bob", Email: "b@x.com", PasswordHash: "h"})
	assert.NoError(t, err)
}

func TestUserRepositoryLookups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created := createTestUser(t, repo, "alice", "a@x.com")

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, created.ID, byName.ID)

	missing, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func seedBeat(t *testing.T, db *gorm.DB, userID int64, title, genre string, price float64, createdAt time.Time) *model.Beat {
	t.Helper()

	beat := &model.Beat{
		Title:     title,
		Price:     price,
		BPM:       120,
		Genre:     genre,
		AudioFile: "x.mp3",
		UserID:    userID,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(beat).Error)
	return beat
}

func TestBeatRepositoryListRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBeatRepository(db)
	user := createTestUser(t, NewUserRepository(db), "alice", "a@x.com")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 10; i++ {
		seedBeat(t, db, user.ID, "beat", "trap", 9.99, base.Add(time.Duration(i)*time.Minute))
	}
	newest := seedBeat(t, db, user.ID, "latest", "trap", 9.99, base.Add(time.Hour))

	beats, err := repo.ListRecent(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, beats, 8)
	assert.Equal(t, newest.ID, beats[0].ID)
}

func TestBeatRepositoryBrowseSorting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBeatRepository(db)
	user := createTestUser(t, NewUserRepository(db), "alice", "a@x.com")

	now := time.Now()
	seedBeat(t, db, user.ID, "cheap", "trap", 4.99, now.Add(-3*time.Minute))
	seedBeat(t, db, user.ID, "mid", "house", 9.99, now.Add(-2*time.Minute))
	seedBeat(t, db, user.ID, "dear", "trap", 19.99, now.Add(-time.Minute))

	beats, total, err := repo.Browse(context.Background(), "", model.SortPriceLow, 1, 12)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, beats, 3)
	for i := 1; i < len(beats); i++ {
		assert.LessOrEqual(t, beats[i-1].Price, beats[i].Price)
	}

	beats, _, err = repo.Browse(context.Background(), "", model.SortPriceHigh, 1, 12)
	require.NoError(t, err)
	for i := 1; i < len(beats); i++ {
		assert.GreaterOrEqual(t, beats[i-1].Price, beats[i].Price)
	}

	// Default sort is newest first.
	beats, _, err = repo.Browse(context.Background(), "", model.SortNewest, 1, 12)
	require.NoError(t, err)
	require.Len(t, beats, 3)
	assert.Equal(t, "dear", beats[0].Title)
}

func TestBeatRepositoryBrowseFilterAndPaging(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBeatRepository(db)
	user := createTestUser(t, NewUserRepository(db), "alice", "a@x.com")

	now := time.Now()
	for i := 0; i < 15; i++ {
		seedBeat(t, db, user.ID, "trap beat", "trap", 9.99, now.Add(time.Duration(i)*time.Second))
	}
	seedBeat(t, db, user.ID, "house beat", "house", 9.99, now)

	// Exact genre filter.
	beats, total, err := repo.Browse(context.Background(), "trap", model.SortNewest, 1, 12)
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	assert.Len(t, beats, 12)

	beats, _, err = repo.Browse(context.Background(), "trap", model.SortNewest, 2, 12)
	require.NoError(t, err)
	assert.Len(t, beats, 3)

	// Out-of-range page yields an empty page, not an error.
	beats, total, err = repo.Browse(context.Background(), "trap", model.SortNewest, 99, 12)
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	assert.Empty(t, beats)
}

func TestBeatRepositorySearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBeatRepository(db)
	user := createTestUser(t, NewUserRepository(db), "alice", "a@x.com")

	now := time.Now()
	seedBeat(t, db, user.ID, "Night Drive", "synthwave", 9.99, now)
	seedBeat(t, db, user.ID, "Morning Run", "trap", 9.99, now)

	// Empty query yields an empty result, not the full catalog.
	beats, err := repo.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, beats)

	// Substring present only in one beat's genre returns exactly that beat.
	beats, err = repo.Search(context.Background(), "synthw")
	require.NoError(t, err)
	require.Len(t, beats, 1)
	assert.Equal(t, "Night Drive", beats[0].Title)

	beats, err = repo.Search(context.Background(), "Drive")
	require.NoError(t, err)
	require.Len(t, beats, 1)
	assert.Equal(t, "Night Drive", beats[0].Title)

	beats, err = repo.Search(context.Background(), "no such thing")
	require.NoError(t, err)
	assert.Empty(t, beats)
}

func TestBeatRepositorySearchEscapesMetacharacters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBeatRepository(db)
	user := createTestUser(t, NewUserRepository(db), "alice", "a@x.com")

	now := time.Now()
	seedBeat(t, db, user.ID, "100% Pure", "trap", 9.99, now)
	seedBeat(t, db, user.ID, "100x Pure", "trap", 9.99, now)
	seedBeat(t, db, user.ID, "My_Beat", "house", 9.99, now)
	seedBeat(t, db, user.ID, "MyxBeat", "house", 9.99, now)

	// % matches a literal percent sign, not any run of characters.
	beats, err := repo.Search(context.Background(), "100%")
	require.NoError(t, err)
	require.Len(t, beats, 1)
	assert.Equal(t, "100% Pure", beats[0].Title)

	// _ matches a literal underscore, not any single character.
	beats, err = repo.Search(context.Background(), "y_B")
	require.NoError(t, err)
	require.Len(t, beats, 1)
	assert.Equal(t, "My_Beat", beats[0].Title)
}

func TestBeatRepositoryDistinctGenres(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBeatRepository(db)
	user := createTestUser(t, NewUserRepository(db), "alice", "a@x.com")

	now := time.Now()
	seedBeat(t, db, user.ID, "a", "trap", 9.99, now)
	seedBeat(t, db, user.ID, "b", "trap", 9.99, now)
	seedBeat(t, db, user.ID, "c", "house", 9.99, now)
	seedBeat(t, db, user.ID, "d", "", 9.99, now)

	genres, err := repo.DistinctGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"house", "trap"}, genres)
}

func TestPurchaseRepositoryDuplicate(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	purchases := NewPurchaseRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice", "a@x.com")
	beat := seedBeat(t, db, alice.ID, "Night Drive", "synthwave", 9.99, time.Now())

	require.NoError(t, purchases.Create(ctx, &model.Purchase{UserID: alice.ID, BeatID: beat.ID}))

	err := purchases.Create(ctx, &model.Purchase{UserID: alice.ID, BeatID: beat.ID})
	assert.ErrorIs(t, err, ErrAlreadyPurchased)

	var count int64
	require.NoError(t, db.Model(&model.Purchase{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	exists, err := purchases.Exists(ctx, alice.ID, beat.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPurchaseRepositoryInsertMapsDuplicateKey(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	purchases := NewPurchaseRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice", "a@x.com")
	beat := seedBeat(t, db, alice.ID, "Night Drive", "synthwave", 9.99, time.Now())

	require.NoError(t, purchases.Create(ctx, &model.Purchase{UserID: alice.ID, BeatID: beat.ID}))

	// A write racing past the existence check lands on the unique index;
	// the constraint violation still reads as an existing purchase.
	impl := purchases.(*gormPurchaseRepository)
	err := impl.insert(ctx, &model.Purchase{UserID: alice.ID, BeatID: beat.ID})
	assert.ErrorIs(t, err, ErrAlreadyPurchased)

	var count int64
	require.NoError(t, db.Model(&model.Purchase{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPurchaseRepositoryByUserPreloadsBeat(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	purchases := NewPurchaseRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice", "a@x.com")
	bob := createTestUser(t, users, "bob", "b@x.com")
	beat := seedBeat(t, db, alice.ID, "Night Drive", "synthwave", 9.99, time.Now())

	require.NoError(t, purchases.Create(ctx, &model.Purchase{UserID: bob.ID, BeatID: beat.ID}))

	got, err := purchases.ByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Beat)
	assert.Equal(t, "Night Drive", got[0].Beat.Title)

	// Alice bought nothing.
	got, err = purchases.ByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
