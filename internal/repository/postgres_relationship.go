package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type postgresRelationshipRepository struct {
	db *sqlx.DB
}

func NewPostgresRelationshipRepository(db *sqlx.DB) RelationshipRepository {
	return &postgresRelationshipRepository{db: db}
}

// Follow is idempotent; following twice leaves one edge.
func (r *postgresRelationshipRepository) Follow(ctx context.Context, followerID, followingID string) error {
	query := `
		INSERT INTO relationships (follower_id, following_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (follower_id, following_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, followerID, followingID); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}
	return nil
}

func (r *postgresRelationshipRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	query := `DELETE FROM relationships WHERE follower_id = $1 AND following_id = $2`
	if _, err := r.db.ExecContext(ctx, query, followerID, followingID); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	return nil
}

func (r *postgresRelationshipRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM relationships WHERE follower_id = $1 AND following_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, followerID, followingID); err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return exists, nil
}

func (r *postgresRelationshipRepository) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT following_id FROM relationships WHERE follower_id = $1 ORDER BY created_at DESC`

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get following ids: %w", err)
	}
	return ids, nil
}

func (r *postgresRelationshipRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT follower_id FROM relationships WHERE following_id = $1 ORDER BY created_at DESC`

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get follower ids: %w", err)
	}
	return ids, nil
}
