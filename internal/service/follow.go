package service

import (
	"context"
	"fmt"

	"cinelog/internal/logging"
	"cinelog/internal/model"
	"cinelog/internal/repository"
)

type FollowService struct {
	followRepo repository.RelationshipRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.RelationshipRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

func (s *FollowService) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == "" || followingID == "" {
		return model.ErrMissingIdentifiers
	}
	if followerID == followingID {
		return model.ErrCannotFollowSelf
	}

	if _, err := s.userRepo.GetByID(ctx, followingID); err != nil {
		return err
	}

	if err := s.followRepo.Follow(ctx, followerID, followingID); err != nil {
		return err
	}

	l := logging.Ctx(ctx)
	l.Info().Str("follower_id", followerID).Str("following_id", followingID).Msg("follow OK")
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followingID string) error {
	if followerID == "" || followingID == "" {
		return model.ErrMissingIdentifiers
	}
	if err := s.followRepo.Unfollow(ctx, followerID, followingID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}

	l := logging.Ctx(ctx)
	l.Info().Str("follower_id", followerID).Str("following_id", followingID).Msg("unfollow OK")
	return nil
}

// IsFollowing is false, not an error, when either id is missing.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == "" || followingID == "" {
		return false, nil
	}
	return s.followRepo.IsFollowing(ctx, followerID, followingID)
}

// ToggleFollow flips the edge and returns the new state.
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	following, err := s.IsFollowing(ctx, followerID, followingID)
	if err != nil {
		return false, err
	}

	if following {
		if err := s.Unfollow(ctx, followerID, followingID); err != nil {
			return true, err
		}
		return false, nil
	}

	if err := s.Follow(ctx, followerID, followingID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FollowService) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return s.followRepo.GetFollowingIDs(ctx, userID)
}

func (s *FollowService) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return s.followRepo.GetFollowerIDs(ctx, userID)
}
