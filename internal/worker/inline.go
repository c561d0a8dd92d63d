package worker

import (
	"context"
	"errors"
	"sync"

	"cinelog/internal/queue"
)

// ErrDispatcherClosed is returned by Dispatch once Wait has been called.
var ErrDispatcherClosed = errors.New("inline dispatcher closed")

// InlineDispatcher runs jobs on goroutines in this process. It is used when
// no Redis is configured and stands in for the stream plus Manager.
type InlineDispatcher struct {
	handler *Handler
	ctx     context.Context

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewInlineDispatcher runs every job under ctx; cancel it to abandon
// in-flight jobs on shutdown.
func NewInlineDispatcher(ctx context.Context, handler *Handler) *InlineDispatcher {
	return &InlineDispatcher{handler: handler, ctx: ctx}
}

func (d *InlineDispatcher) Dispatch(_ context.Context, job queue.RecomputeJob) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		_ = d.handler.HandleJob(d.ctx, job)
	}()
	return nil
}

// Wait stops accepting jobs and blocks until every dispatched job has
// returned.
func (d *InlineDispatcher) Wait() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
