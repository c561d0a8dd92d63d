package recommend

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cinelog/internal/logging"
	"cinelog/internal/queue"
)

const (
	DefaultDebounce = 400 * time.Millisecond

	dispatchTimeout = 5 * time.Second
)

// Dispatcher hands a recompute job to whatever runs it.
type Dispatcher interface {
	Dispatch(ctx context.Context, job queue.RecomputeJob) error
}

// Refresher turns bursts of activity changes into one recompute per user.
// Each Trigger restarts the user's debounce timer; when it fires the user
// gets a fresh token and a job carrying it is dispatched.
type Refresher struct {
	tokens     TokenStore
	dispatcher Dispatcher
	debounce   time.Duration
	logger     zerolog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool

	// inflight counts fires past their stopped check; Stop waits for them.
	inflight sync.WaitGroup
}

func NewRefresher(tokens TokenStore, dispatcher Dispatcher, debounce time.Duration) *Refresher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Refresher{
		tokens:     tokens,
		dispatcher: dispatcher,
		debounce:   debounce,
		logger:     logging.Component("refresher"),
		timers:     make(map[string]*time.Timer),
	}
}

// Trigger schedules a recompute for userID after the debounce window.
func (r *Refresher) Trigger(userID string) {
	if userID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	if t, ok := r.timers[userID]; ok {
		t.Stop()
	}
	r.timers[userID] = time.AfterFunc(r.debounce, func() { r.fire(userID) })
}

func (r *Refresher) fire(userID string) {
	r.mu.Lock()
	delete(r.timers, userID)
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.inflight.Add(1)
	r.mu.Unlock()
	defer r.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	token, err := r.tokens.NextToken(ctx, userID)
	if err != nil {
		r.logger.Error().Err(err).Str(logging.FieldUserID, userID).Msg("NextToken FAILED")
		return
	}

	job := queue.NewRecomputeJob(userID, token)
	if err := r.dispatcher.Dispatch(ctx, job); err != nil {
		r.logger.Error().Err(err).Str(logging.FieldUserID, userID).Int64("token", token).Msg("Dispatch FAILED")
		return
	}
	r.logger.Debug().Str(logging.FieldUserID, userID).Int64("token", token).Msg("recompute dispatched")
}

// Pending returns how many users have a recompute waiting on its timer.
func (r *Refresher) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// Stop cancels every pending timer and waits for dispatches already under
// way, so nothing reaches the dispatcher once it returns. Later Triggers are
// ignored.
func (r *Refresher) Stop() {
	r.mu.Lock()
	r.stopped = true
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	r.mu.Unlock()

	r.inflight.Wait()
}
