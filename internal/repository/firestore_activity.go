package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cinelog/internal/model"
)

const collectionActivity = "user_activity"

type firestoreActivityRepository struct {
	client *firestore.Client
}

func NewFirestoreActivityRepository(client *firestore.Client) ActivityRepository {
	return &firestoreActivityRepository{client: client}
}

func (r *firestoreActivityRepository) Upsert(ctx context.Context, rec *model.ActivityRecord) error {
	if _, err := r.client.Collection(collectionActivity).Doc(rec.Key()).Set(ctx, rec); err != nil {
		return fmt.Errorf("failed to upsert activity %s: %w", rec.Key(), err)
	}
	return nil
}

func (r *firestoreActivityRepository) Get(ctx context.Context, userID string, titleID int64) (*model.ActivityRecord, error) {
	snap, err := r.client.Collection(collectionActivity).Doc(model.ActivityKey(userID, titleID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	var rec model.ActivityRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode activity %s: %w", snap.Ref.ID, err)
	}
	return &rec, nil
}

func (r *firestoreActivityRepository) Delete(ctx context.Context, userID string, titleID int64) error {
	if _, err := r.client.Collection(collectionActivity).Doc(model.ActivityKey(userID, titleID)).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil
}

func (r *firestoreActivityRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error) {
	q := r.client.Collection(collectionActivity).
		Where("userId", "==", userID).
		OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.query(ctx, q)
}

func (r *firestoreActivityRepository) ListWatchedMovies(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error) {
	q := r.client.Collection(collectionActivity).
		Where("userId", "==", userID).
		Where("mediaType", "==", string(model.MediaMovie)).
		Where("status", "==", string(model.StatusWatched)).
		OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.query(ctx, q)
}

func (r *firestoreActivityRepository) ListByUser(ctx context.Context, userID string) ([]model.ActivityRecord, error) {
	return r.ListRecentByUser(ctx, userID, 0)
}

func (r *firestoreActivityRepository) query(ctx context.Context, q firestore.Query) ([]model.ActivityRecord, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}

	records := make([]model.ActivityRecord, 0, len(docs))
	for _, doc := range docs {
		var rec model.ActivityRecord
		if err := doc.DataTo(&rec); err != nil {
			log.Printf("[ActivityRepo] Skipping undecodable doc: id=%s err=%v", doc.Ref.ID, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

const (
	// watchWindow is how long one snapshot query lives before it is replaced
	// by a fresh one. The listener holds every document matching its query,
	// so the window bounds that set to the writes of roughly one window.
	watchWindow = 5 * time.Minute

	// watchOverlap moves each new lower bound back to cover changes the
	// previous listener had not delivered yet. Repeats are absorbed by the
	// refresher's debounce.
	watchOverlap = 10 * time.Second
)

// activitySnapshots yields the user ids touched by each snapshot.
type activitySnapshots interface {
	Next() ([]string, error)
	Stop()
}

type firestoreSnapshots struct {
	it *firestore.QuerySnapshotIterator
}

func (s *firestoreSnapshots) Next() ([]string, error) {
	snap, err := s.it.Next()
	if err != nil {
		return nil, err
	}

	uids := make([]string, 0, len(snap.Changes))
	for _, change := range snap.Changes {
		v, err := change.Doc.DataAt("userId")
		if err != nil {
			continue
		}
		if uid, ok := v.(string); ok && uid != "" {
			uids = append(uids, uid)
		}
	}
	return uids, nil
}

func (s *firestoreSnapshots) Stop() { s.it.Stop() }

type firestoreActivityWatcher struct {
	open    func(ctx context.Context, since time.Time) activitySnapshots
	now     func() time.Time
	window  time.Duration
	overlap time.Duration
}

// NewFirestoreActivityWatcher listens to user_activity through query
// snapshots over a rolling time window. Only documents written after the
// watch starts are reported.
func NewFirestoreActivityWatcher(client *firestore.Client) ActivityWatcher {
	return &firestoreActivityWatcher{
		open: func(ctx context.Context, since time.Time) activitySnapshots {
			q := client.Collection(collectionActivity).Where("timestamp", ">", since)
			return &firestoreSnapshots{it: q.Snapshots(ctx)}
		},
		now:     time.Now,
		window:  watchWindow,
		overlap: watchOverlap,
	}
}

func (w *firestoreActivityWatcher) WatchActivity(ctx context.Context, onChange func(userID string)) error {
	log.Printf("[ActivityWatcher] Listening on %s", collectionActivity)

	since := w.now()
	for {
		windowCtx, cancel := context.WithTimeout(ctx, w.window)
		err := w.listen(windowCtx, since, onChange)
		cancel()

		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		since = w.now().Add(-w.overlap)
	}
}

// listen runs one listener until ctx ends. Ending the window is not an
// error.
func (w *firestoreActivityWatcher) listen(ctx context.Context, since time.Time, onChange func(userID string)) error {
	snaps := w.open(ctx, since)
	defer snaps.Stop()

	for {
		uids, err := snaps.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled || status.Code(err) == codes.DeadlineExceeded {
				return nil
			}
			return fmt.Errorf("activity snapshot: %w", err)
		}
		for _, uid := range uids {
			onChange(uid)
		}
	}
}
