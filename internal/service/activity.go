package service

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"cinelog/internal/logging"
	"cinelog/internal/model"
	"cinelog/internal/repository"
)

// ChangeNotifier is told whenever a user's activity changes.
type ChangeNotifier interface {
	Trigger(userID string)
}

type ActivityService struct {
	repo     repository.ActivityRepository
	notifier ChangeNotifier
	now      func() time.Time
}

func NewActivityService(repo repository.ActivityRepository, notifier ChangeNotifier) *ActivityService {
	return &ActivityService{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// UpdateStatus writes the user's status for a title. Out of range ratings are
// stored as absent and reviews are trimmed and cut to MaxReviewLength.
func (s *ActivityService) UpdateStatus(ctx context.Context, userID string, titleID int64, req model.UpdateStatusRequest) (*model.ActivityRecord, error) {
	if userID == "" || titleID <= 0 || req.MediaType == "" || req.Status == "" {
		return nil, model.ErrMissingIdentifiers
	}
	if !req.MediaType.Valid() {
		return nil, model.ErrInvalidMediaType
	}
	if !req.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	rec := &model.ActivityRecord{
		UserID:    userID,
		TitleID:   titleID,
		MediaType: req.MediaType,
		Status:    req.Status,
		Rating:    NormalizeRating(req.Rating),
		Review:    NormalizeReview(req.Review),
		UpdatedAt: s.now().UTC(),
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	l := logging.Ctx(ctx)
	l.Debug().Str(logging.FieldUserID, userID).Int64("title_id", titleID).Str("status", string(rec.Status)).Msg("activity updated")

	s.notify(userID)
	return rec, nil
}

// GetStatus returns nil, nil when the user has no record for the title.
func (s *ActivityService) GetStatus(ctx context.Context, userID string, titleID int64) (*model.ActivityRecord, error) {
	if userID == "" || titleID <= 0 {
		return nil, nil
	}
	return s.repo.Get(ctx, userID, titleID)
}

func (s *ActivityService) RemoveStatus(ctx context.Context, userID string, titleID int64) error {
	if userID == "" || titleID <= 0 {
		return model.ErrMissingIdentifiers
	}
	if err := s.repo.Delete(ctx, userID, titleID); err != nil {
		return err
	}
	s.notify(userID)
	return nil
}

func (s *ActivityService) ListByUser(ctx context.Context, userID string) ([]model.ActivityRecord, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *ActivityService) notify(userID string) {
	if s.notifier != nil {
		s.notifier.Trigger(userID)
	}
}

// NormalizeRating keeps finite ratings within [0, 10] and drops the rest.
func NormalizeRating(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := *r
	if math.IsNaN(v) || math.IsInf(v, 0) || v < model.MinRating || v > model.MaxRating {
		return nil
	}
	return &v
}

func NormalizeReview(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= model.MaxReviewLength {
		return s
	}
	return string([]rune(s)[:model.MaxReviewLength])
}
