package recommend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinelog/internal/model"
	"cinelog/internal/queue"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []queue.RecomputeJob
	sent chan queue.RecomputeJob
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{sent: make(chan queue.RecomputeJob, 16)}
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, job queue.RecomputeJob) error {
	d.mu.Lock()
	d.jobs = append(d.jobs, job)
	d.mu.Unlock()
	d.sent <- job
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

func waitJob(t *testing.T, d *recordingDispatcher) queue.RecomputeJob {
	t.Helper()
	select {
	case job := <-d.sent:
		return job
	case <-time.After(2 * time.Second):
		t.Fatal("no job dispatched")
		return queue.RecomputeJob{}
	}
}

func TestRefresher_BurstCoalescesIntoOneJob(t *testing.T) {
	store := NewMemoryStore()
	d := newRecordingDispatcher()
	r := NewRefresher(store, d, 60*time.Millisecond)
	defer r.Stop()

	for i := 0; i < 5; i++ {
		r.Trigger("u1")
		time.Sleep(5 * time.Millisecond)
	}

	job := waitJob(t, d)
	assert.Equal(t, "u1", job.UserID)
	assert.Equal(t, int64(1), job.Token)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, d.count())
}

func TestRefresher_UsersDebounceIndependently(t *testing.T) {
	d := newRecordingDispatcher()
	r := NewRefresher(NewMemoryStore(), d, 20*time.Millisecond)
	defer r.Stop()

	r.Trigger("u1")
	r.Trigger("u2")

	got := map[string]bool{}
	got[waitJob(t, d).UserID] = true
	got[waitJob(t, d).UserID] = true
	assert.Equal(t, map[string]bool{"u1": true, "u2": true}, got)
}

func TestRefresher_TokensIncreaseAcrossBursts(t *testing.T) {
	d := newRecordingDispatcher()
	r := NewRefresher(NewMemoryStore(), d, 10*time.Millisecond)
	defer r.Stop()

	r.Trigger("u1")
	first := waitJob(t, d)
	r.Trigger("u1")
	second := waitJob(t, d)

	assert.Greater(t, second.Token, first.Token)
}

func TestRefresher_StopCancelsPending(t *testing.T) {
	d := newRecordingDispatcher()
	r := NewRefresher(NewMemoryStore(), d, 30*time.Millisecond)

	r.Trigger("u1")
	require.Equal(t, 1, r.Pending())
	r.Stop()
	r.Trigger("u2")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 0, d.count())
	assert.Equal(t, 0, r.Pending())
}

type blockingDispatcher struct {
	entered chan struct{}
	release chan struct{}
}

func (d *blockingDispatcher) Dispatch(ctx context.Context, job queue.RecomputeJob) error {
	close(d.entered)
	<-d.release
	return nil
}

func TestRefresher_StopWaitsForInFlightDispatch(t *testing.T) {
	d := &blockingDispatcher{entered: make(chan struct{}), release: make(chan struct{})}
	r := NewRefresher(NewMemoryStore(), d, 5*time.Millisecond)

	r.Trigger("u1")
	select {
	case <-d.entered:
	case <-time.After(time.Second):
		t.Fatal("dispatch never started")
	}

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a dispatch was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(d.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the dispatch finished")
	}
}

func TestMemoryStore_StaleTokenCannotOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	older, _ := store.NextToken(ctx, "u1")
	newer, _ := store.NextToken(ctx, "u1")

	fresh := &model.Recommendations{TopGenres: []model.GenreScore{{ID: 28}}}
	ok, err := store.SetIfNewer(ctx, &model.RecommendationState{UserID: "u1", Token: newer, Result: fresh})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.SetIfNewer(ctx, &model.RecommendationState{UserID: "u1", Token: older, Result: model.EmptyRecommendations()})
	require.NoError(t, err)
	assert.False(t, ok)

	st, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, newer, st.Token)
	assert.Same(t, fresh, st.Result)
}

func TestService_GetComputesOnceThenServesStored(t *testing.T) {
	ctx := context.Background()
	cat := newFakeCatalog()
	cat.movie(1, action)
	cat.discover["28"] = items(40)
	watched := &fakeWatched{records: []model.ActivityRecord{watchedRecord(1, rating(9), 0)}}

	svc := NewService(NewEngine(cat, watched, 2), NewMemoryStore())

	first := svc.Get(ctx, "u1")
	calls := cat.totalCalls()
	second := svc.Get(ctx, "u1")

	assert.Equal(t, []int64{40}, ids(first.InterestBased))
	assert.Same(t, first, second)
	assert.Equal(t, calls, cat.totalCalls(), "second read must not hit the catalog")
}

func TestService_SupersededAndSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(NewEngine(newFakeCatalog(), &fakeWatched{}, 1), store)

	t1, _ := store.NextToken(ctx, "u1")
	t2, _ := store.NextToken(ctx, "u1")

	stale, err := svc.Superseded(ctx, "u1", t1)
	require.NoError(t, err)
	assert.True(t, stale)

	current, err := svc.Superseded(ctx, "u1", t2)
	require.NoError(t, err)
	assert.False(t, current)

	ok, _ := svc.Save(ctx, "u1", t2, model.EmptyRecommendations())
	assert.True(t, ok)
	ok, _ = svc.Save(ctx, "u1", t1, model.EmptyRecommendations())
	assert.False(t, ok)
}
