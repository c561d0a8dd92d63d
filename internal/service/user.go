package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"cinelog/internal/identity"
	"cinelog/internal/logging"
	"cinelog/internal/model"
	"cinelog/internal/repository"
	"cinelog/internal/validation"
)

const userSearchLimit = 20

type UserService struct {
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	followRepo   repository.RelationshipRepository
	identity     identity.Provider
	auth         *AuthService
	now          func() time.Time
}

func NewUserService(
	userRepo repository.UserRepository,
	activityRepo repository.ActivityRepository,
	followRepo repository.RelationshipRepository,
	provider identity.Provider,
	auth *AuthService,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		followRepo:   followRepo,
		identity:     provider,
		auth:         auth,
		now:          time.Now,
	}
}

// SignUp creates the account and its profile. The username is reserved
// atomically by the repository; if that loses a race the new account is
// deleted again.
func (s *UserService) SignUp(ctx context.Context, req *model.SignUpRequest) (*model.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, model.ErrUsernameExists
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	id, err := s.identity.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &model.User{
		UID:       id.UID,
		Username:  req.Username,
		Email:     id.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	l := logging.Ctx(ctx)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if delErr := s.identity.Delete(ctx, id.UID); delErr != nil {
			l.Error().Err(delErr).Str(logging.FieldUserID, id.UID).Msg("signup rollback FAILED")
		}
		return nil, err
	}

	l.Info().Str(logging.FieldUserID, user.UID).Str("username", user.Username).Msg("signup OK")
	return s.authResponse(user)
}

func (s *UserService) SignIn(ctx context.Context, req *model.SignInRequest) (*model.AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	id, err := s.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id.UID)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		// Accounts created outside this service may not have a profile yet.
		user = &model.User{UID: id.UID, Email: id.Email}
	}
	return s.authResponse(user)
}

func (s *UserService) authResponse(user *model.User) (*model.AuthResponse, error) {
	token, err := s.auth.IssueAccessToken(user.UID)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		User:        user,
		AccessToken: token,
		ExpiresIn:   s.auth.MaxAge(),
	}, nil
}

func (s *UserService) GetByID(ctx context.Context, uid string) (*model.User, error) {
	return s.userRepo.GetByID(ctx, uid)
}

// FindUsersByUsername is a case-sensitive prefix match; an empty term
// matches nobody.
func (s *UserService) FindUsersByUsername(ctx context.Context, term string) ([]model.User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []model.User{}, nil
	}
	return s.userRepo.FindByUsernamePrefix(ctx, term, userSearchLimit)
}

func (s *UserService) GetUsersByIDs(ctx context.Context, uids []string) ([]model.User, error) {
	return s.userRepo.GetByIDs(ctx, uids)
}

// GetProfile loads a user's page. Follow lists degrade to empty on failure.
func (s *UserService) GetProfile(ctx context.Context, username, viewerID string) (*model.Profile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	activity, err := s.activityRepo.ListByUser(ctx, user.UID)
	if err != nil {
		return nil, err
	}

	profile := &model.Profile{
		User:      user,
		Stats:     ComputeStats(activity),
		Activity:  activity,
		Following: []model.User{},
		Followers: []model.User{},
		IsOwner:   viewerID != "" && viewerID == user.UID,
	}

	l := logging.Ctx(ctx)
	if ids, err := s.followRepo.GetFollowingIDs(ctx, user.UID); err != nil {
		l.Warn().Err(err).Str(logging.FieldUserID, user.UID).Msg("profile following list FAILED")
	} else if users, err := s.userRepo.GetByIDs(ctx, ids); err == nil {
		profile.Following = users
	}

	if ids, err := s.followRepo.GetFollowerIDs(ctx, user.UID); err != nil {
		l.Warn().Err(err).Str(logging.FieldUserID, user.UID).Msg("profile follower list FAILED")
	} else if users, err := s.userRepo.GetByIDs(ctx, ids); err == nil {
		profile.Followers = users
	}

	if viewerID != "" && !profile.IsOwner {
		following, err := s.followRepo.IsFollowing(ctx, viewerID, user.UID)
		if err == nil {
			profile.IsFollowing = following
		}
	}

	return profile, nil
}

func ComputeStats(activity []model.ActivityRecord) model.ProfileStats {
	var stats model.ProfileStats
	for _, a := range activity {
		if a.Status != model.StatusWatched {
			continue
		}
		switch a.MediaType {
		case model.MediaMovie:
			stats.WatchedMovies++
		case model.MediaTV:
			stats.WatchedShows++
		}
	}
	stats.TotalWatched = stats.WatchedMovies + stats.WatchedShows
	return stats
}
