package repository

import (
	"context"

	"cinelog/internal/model"
)

// ActivityRepository stores one record per (user, title).
type ActivityRepository interface {
	// Upsert writes rec under its (user, title) key, replacing any previous record.
	Upsert(ctx context.Context, rec *model.ActivityRecord) error
	// Get returns nil, nil when the user has no record for the title.
	Get(ctx context.Context, userID string, titleID int64) (*model.ActivityRecord, error)
	Delete(ctx context.Context, userID string, titleID int64) error
	// ListRecentByUser returns up to limit records, most recently updated first.
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error)
	// ListWatchedMovies returns watched movie records, most recent first.
	// limit <= 0 means no cap.
	ListWatchedMovies(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error)
	ListByUser(ctx context.Context, userID string) ([]model.ActivityRecord, error)
}

type RelationshipRepository interface {
	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

type UserRepository interface {
	// Create stores the profile and reserves its username atomically.
	// Returns model.ErrUsernameExists when the name is taken.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, uid string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByIDs skips ids that do not resolve; order follows uids.
	GetByIDs(ctx context.Context, uids []string) ([]model.User, error)
	FindByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]model.User, error)
}

// ActivityWatcher reports which users' activity changed. WatchActivity blocks
// until ctx is cancelled; cancelling is how callers unregister.
type ActivityWatcher interface {
	WatchActivity(ctx context.Context, onChange func(userID string)) error
}
