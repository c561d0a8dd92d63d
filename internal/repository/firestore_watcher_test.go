package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ===== Fake snapshot source =====

type fakeSnapshots struct {
	ctx     context.Context
	batches chan []string
	err     error

	mu      sync.Mutex
	stopped bool
}

func (f *fakeSnapshots) Next() ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	select {
	case b := <-f.batches:
		return b, nil
	case <-f.ctx.Done():
		return nil, status.Error(codes.Canceled, "context done")
	}
}

func (f *fakeSnapshots) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeSnapshots) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeSource struct {
	mu      sync.Mutex
	batches [][]string // batches[i] is delivered by the i-th listener
	err     error
	sinces  []time.Time
	opened  []*fakeSnapshots
}

func (s *fakeSource) open(ctx context.Context, since time.Time) activitySnapshots {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps := &fakeSnapshots{ctx: ctx, batches: make(chan []string, 1), err: s.err}
	if i := len(s.opened); i < len(s.batches) {
		snaps.batches <- s.batches[i]
	}
	s.sinces = append(s.sinces, since)
	s.opened = append(s.opened, snaps)
	return snaps
}

func (s *fakeSource) openCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.opened)
}

// steppingClock advances one minute per call.
func steppingClock(base time.Time) func() time.Time {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := base.Add(time.Duration(n) * time.Minute)
		n++
		return t
	}
}

// ===== Firestore activity watcher =====

func TestFirestoreActivityWatcher_RollsWindowForward(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{batches: [][]string{{"u1", "u2"}, {"u3"}}}
	w := &firestoreActivityWatcher{
		open:    src.open,
		now:     steppingClock(base),
		window:  30 * time.Millisecond,
		overlap: 10 * time.Second,
	}

	var mu sync.Mutex
	var changed []string
	onChange := func(uid string) {
		mu.Lock()
		defer mu.Unlock()
		changed = append(changed, uid)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.WatchActivity(ctx, onChange) }()

	require.Eventually(t, func() bool { return src.openCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WatchActivity did not return after cancel")
	}

	mu.Lock()
	assert.Equal(t, []string{"u1", "u2", "u3"}, changed)
	mu.Unlock()

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, base, src.sinces[0])
	assert.Equal(t, base.Add(time.Minute-10*time.Second), src.sinces[1], "lower bound moves to now minus overlap")
	for i := 1; i < len(src.sinces); i++ {
		assert.True(t, src.sinces[i].After(src.sinces[i-1]), "since[%d] must advance", i)
	}
	for i, snaps := range src.opened {
		assert.True(t, snaps.isStopped(), "listener %d not stopped", i)
	}
}

func TestFirestoreActivityWatcher_ListenerErrorEndsWatch(t *testing.T) {
	src := &fakeSource{err: status.Error(codes.PermissionDenied, "denied")}
	w := &firestoreActivityWatcher{
		open:    src.open,
		now:     time.Now,
		window:  time.Minute,
		overlap: time.Second,
	}

	err := w.WatchActivity(context.Background(), func(string) {
		t.Error("unexpected change")
	})

	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(errors.Unwrap(err)))
	assert.Equal(t, 1, src.openCount())
	assert.True(t, src.opened[0].isStopped())
}
