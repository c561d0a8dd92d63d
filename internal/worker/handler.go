package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"cinelog/internal/logging"
	"cinelog/internal/metrics"
	"cinelog/internal/model"
	"cinelog/internal/queue"
)

// JobTimeout bounds one recompute, catalog calls included.
const JobTimeout = 30 * time.Second

// Recomputer abstracts the recommendation service so workers do not depend
// on the engine or the store directly.
type Recomputer interface {
	// Superseded reports whether a newer token than token exists for the user.
	Superseded(ctx context.Context, userID string, token int64) (bool, error)

	Compute(ctx context.Context, userID string) *model.Recommendations

	// Save stores result unless a newer one is already stored.
	Save(ctx context.Context, userID string, token int64, result *model.Recommendations) (bool, error)
}

// Handler processes recompute jobs from the queue.
type Handler struct {
	recomputer Recomputer
	logger     zerolog.Logger
}

func NewHandler(recomputer Recomputer) *Handler {
	return &Handler{
		recomputer: recomputer,
		logger:     logging.Component("worker"),
	}
}

// HandleJob recomputes one user's recommendations. Jobs that are superseded
// before or during the computation are dropped without touching stored state.
func (h *Handler) HandleJob(ctx context.Context, job queue.RecomputeJob) error {
	if job.Type != queue.JobRecompute {
		h.logger.Warn().Str("type", job.Type).Msg("unknown job type")
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, JobTimeout)
	defer cancel()

	l := h.logger.With().Str(logging.FieldUserID, job.UserID).Int64("token", job.Token).Logger()

	if stale, err := h.recomputer.Superseded(ctx, job.UserID, job.Token); err != nil {
		l.Warn().Err(err).Msg("token check FAILED, computing anyway")
	} else if stale {
		metrics.RecommendJobs.WithLabelValues("skipped").Inc()
		l.Debug().Msg("HandleJob skipped: superseded before start")
		return nil
	}

	result := h.recomputer.Compute(ctx, job.UserID)

	if stale, err := h.recomputer.Superseded(ctx, job.UserID, job.Token); err == nil && stale {
		metrics.RecommendJobs.WithLabelValues("stale").Inc()
		l.Debug().Dur("duration", time.Since(startTime)).Msg("HandleJob discarded: superseded while computing")
		return nil
	}

	stored, err := h.recomputer.Save(ctx, job.UserID, job.Token, result)
	if err != nil {
		l.Error().Err(err).Dur("duration", time.Since(startTime)).Msg("HandleJob FAILED")
		return fmt.Errorf("save recommendations: %w", err)
	}

	l.Info().Bool("stored", stored).Dur("duration", time.Since(startTime)).Msg("HandleJob OK")
	return nil
}
