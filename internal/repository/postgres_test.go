package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinelog/internal/database"
	"cinelog/internal/model"
)

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"amy", "amy"},
		{"a_b", `a\_b`},
		{"50%", `50\%`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNullableLimit(t *testing.T) {
	if got := nullableLimit(0); got.Valid {
		t.Errorf("nullableLimit(0) = %+v, want NULL", got)
	}
	if got := nullableLimit(-1); got.Valid {
		t.Errorf("nullableLimit(-1) = %+v, want NULL", got)
	}
	if got := nullableLimit(20); !got.Valid || got.Int64 != 20 {
		t.Errorf("nullableLimit(20) = %+v, want 20", got)
	}
}

// ===== Postgres integration =====

// setupTestDB connects to TEST_DATABASE_URL, applies migrations and empties
// every table. Tests skip when the variable is unset.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skipf("TEST_DATABASE_URL not set, skipping postgres test")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE users, identities, user_activity, relationships`)
	require.NoError(t, err)
	return db
}

func TestPostgresUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	for _, u := range []*model.User{
		{UID: "u1", Username: "amy", Email: "amy@example.com"},
		{UID: "u2", Username: "a_b", Email: "ab@example.com"},
		{UID: "u3", Username: "axb", Email: "axb@example.com"},
	} {
		require.NoError(t, repo.Create(ctx, u))
		assert.False(t, u.CreatedAt.IsZero())
	}

	t.Run("username is unique ignoring case", func(t *testing.T) {
		err := repo.Create(ctx, &model.User{UID: "u4", Username: "AMY"})
		assert.ErrorIs(t, err, model.ErrUsernameExists)
	})

	t.Run("lookup", func(t *testing.T) {
		u, err := repo.GetByUsername(ctx, "amy")
		require.NoError(t, err)
		assert.Equal(t, "u1", u.UID)

		_, err = repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("batch keeps request order and skips unknown ids", func(t *testing.T) {
		users, err := repo.GetByIDs(ctx, []string{"u3", "nobody", "u1"})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "u3", users[0].UID)
		assert.Equal(t, "u1", users[1].UID)
	})

	t.Run("prefix search treats underscore literally", func(t *testing.T) {
		users, err := repo.FindByUsernamePrefix(ctx, "a_", 10)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "a_b", users[0].Username)

		users, err = repo.FindByUsernamePrefix(ctx, "a", 2)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

func TestPostgresActivityRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresActivityRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rating := 9.0
	records := []*model.ActivityRecord{
		{UserID: "u1", TitleID: 1, MediaType: model.MediaMovie, Status: model.StatusWatched, Rating: &rating, UpdatedAt: base},
		{UserID: "u1", TitleID: 2, MediaType: model.MediaTV, Status: model.StatusWatched, UpdatedAt: base.Add(time.Minute)},
		{UserID: "u1", TitleID: 3, MediaType: model.MediaMovie, Status: model.StatusWatchlist, UpdatedAt: base.Add(2 * time.Minute)},
		{UserID: "u2", TitleID: 1, MediaType: model.MediaMovie, Status: model.StatusWatched, UpdatedAt: base},
	}
	for _, rec := range records {
		require.NoError(t, repo.Upsert(ctx, rec))
	}

	// Same pair again: overwrite, not a second row. The rating survives.
	moved := *records[0]
	moved.Status = model.StatusWatching
	moved.UpdatedAt = base.Add(3 * time.Minute)
	require.NoError(t, repo.Upsert(ctx, &moved))

	got, err := repo.Get(ctx, "u1", 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusWatching, got.Status)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 9.0, *got.Rating)

	recent, err := repo.ListRecentByUser(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(1), recent[0].TitleID)
	assert.Equal(t, int64(3), recent[1].TitleID)

	all, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	watched, err := repo.ListWatchedMovies(ctx, "u2", 0)
	require.NoError(t, err)
	require.Len(t, watched, 1)
	assert.Equal(t, int64(1), watched[0].TitleID)

	require.NoError(t, repo.Delete(ctx, "u1", 1))
	got, err = repo.Get(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresRelationshipRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresRelationshipRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Follow(ctx, "u1", "u2"))
	require.NoError(t, repo.Follow(ctx, "u1", "u2"))
	require.NoError(t, repo.Follow(ctx, "u3", "u2"))

	following, err := repo.GetFollowingIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, following)

	followers, err := repo.GetFollowerIDs(ctx, "u2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u3"}, followers)

	ok, err := repo.IsFollowing(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Unfollow(ctx, "u1", "u2"))
	ok, err = repo.IsFollowing(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	empty, err := repo.GetFollowingIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
