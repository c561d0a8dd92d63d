package recommend

import (
	"context"
	"time"

	"cinelog/internal/logging"
	"cinelog/internal/metrics"
	"cinelog/internal/model"
)

// Service answers recommendation reads from the store, computing on demand
// for users that have nothing stored yet.
type Service struct {
	engine *Engine
	store  Store
	now    func() time.Time
}

func NewService(engine *Engine, store Store) *Service {
	return &Service{
		engine: engine,
		store:  store,
		now:    time.Now,
	}
}

func (s *Service) Get(ctx context.Context, userID string) *model.Recommendations {
	if userID == "" {
		return model.EmptyRecommendations()
	}

	l := logging.Ctx(ctx)
	state, err := s.store.Load(ctx, userID)
	if err != nil {
		l.Warn().Err(err).Str(logging.FieldUserID, userID).Msg("recommendations load FAILED")
	}
	if state != nil && state.Result != nil {
		return state.Result
	}

	token, err := s.store.NextToken(ctx, userID)
	if err != nil {
		l.Warn().Err(err).Str(logging.FieldUserID, userID).Msg("recommendations token FAILED")
		return s.engine.Compute(ctx, userID)
	}

	result := s.engine.Compute(ctx, userID)
	if _, err := s.Save(ctx, userID, token, result); err != nil {
		l.Warn().Err(err).Str(logging.FieldUserID, userID).Msg("recommendations save FAILED")
	}
	return result
}

// Save stores result under token unless a newer result is already stored.
func (s *Service) Save(ctx context.Context, userID string, token int64, result *model.Recommendations) (bool, error) {
	stored, err := s.store.SetIfNewer(ctx, &model.RecommendationState{
		UserID:     userID,
		Token:      token,
		ComputedAt: s.now().UTC(),
		Result:     result,
	})
	if err != nil {
		metrics.RecommendJobs.WithLabelValues("failed").Inc()
		return false, err
	}
	if !stored {
		metrics.RecommendJobs.WithLabelValues("stale").Inc()
		return false, nil
	}
	metrics.RecommendJobs.WithLabelValues("stored").Inc()
	return true, nil
}

// Superseded reports whether a newer token than token has been issued.
func (s *Service) Superseded(ctx context.Context, userID string, token int64) (bool, error) {
	current, err := s.store.CurrentToken(ctx, userID)
	if err != nil {
		return false, err
	}
	return current > token, nil
}

func (s *Service) Compute(ctx context.Context, userID string) *model.Recommendations {
	return s.engine.Compute(ctx, userID)
}
