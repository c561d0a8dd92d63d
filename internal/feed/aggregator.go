package feed

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"cinelog/internal/logging"
	"cinelog/internal/metrics"
	"cinelog/internal/model"
)

const (
	// MaxItems is the feed length and the per-user activity page size.
	MaxItems = 20

	DefaultFanout = 8
)

// FollowingLister returns the ids a user follows.
type FollowingLister interface {
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
}

// ActivityLister returns a user's most recent activity, newest first.
type ActivityLister interface {
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error)
}

// UserLookup resolves profiles in bulk, skipping ids it cannot find.
type UserLookup interface {
	GetByIDs(ctx context.Context, uids []string) ([]model.User, error)
}

// Aggregator builds activity feeds on read from the follow graph.
type Aggregator struct {
	follows  FollowingLister
	activity ActivityLister
	users    UserLookup
	fanout   int
	logger   zerolog.Logger
}

func NewAggregator(follows FollowingLister, activity ActivityLister, users UserLookup, fanout int) *Aggregator {
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	return &Aggregator{
		follows:  follows,
		activity: activity,
		users:    users,
		fanout:   fanout,
		logger:   logging.Component("feed"),
	}
}

// Build returns the newest MaxItems activity records across everyone userID
// follows. Failures drop the affected part and are only logged; the result is
// never nil.
func (a *Aggregator) Build(ctx context.Context, userID string) []model.FeedItem {
	start := time.Now()
	defer func() {
		metrics.FeedBuildDuration.Observe(time.Since(start).Seconds())
	}()

	items := []model.FeedItem{}
	if userID == "" {
		return items
	}

	following, err := a.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		a.logger.Warn().Err(err).Str(logging.FieldUserID, userID).Msg("Build following lookup FAILED")
		return items
	}
	if len(following) == 0 {
		return items
	}

	records := a.collect(ctx, following)
	sortByRecency(records)
	if len(records) > MaxItems {
		records = records[:MaxItems]
	}

	names := a.displayNames(ctx, records)
	for _, rec := range records {
		name, ok := names[rec.UserID]
		if !ok {
			name = rec.UserID
		}
		items = append(items, model.FeedItem{ActivityRecord: rec, UserName: name})
	}

	a.logger.Debug().
		Str(logging.FieldUserID, userID).
		Int("following", len(following)).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Build OK")
	return items
}

// collect fetches each followed user's recent activity with bounded
// parallelism. A failed user contributes nothing.
func (a *Aggregator) collect(ctx context.Context, userIDs []string) []model.ActivityRecord {
	perUser := make([][]model.ActivityRecord, len(userIDs))

	p := pool.New().WithMaxGoroutines(a.fanout)
	for i, uid := range userIDs {
		p.Go(func() {
			recs, err := a.activity.ListRecentByUser(ctx, uid, MaxItems)
			if err != nil {
				a.logger.Warn().Err(err).Str(logging.FieldUserID, uid).Msg("collect activity FAILED")
				return
			}
			perUser[i] = recs
		})
	}
	p.Wait()

	var out []model.ActivityRecord
	for _, recs := range perUser {
		out = append(out, recs...)
	}
	return out
}

// displayNames maps user ids to username, then email, then the id itself.
func (a *Aggregator) displayNames(ctx context.Context, records []model.ActivityRecord) map[string]string {
	seen := make(map[string]struct{})
	var ids []string
	for _, r := range records {
		if r.UserID == "" {
			continue
		}
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}

	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names
	}

	users, err := a.users.GetByIDs(ctx, ids)
	if err != nil {
		a.logger.Warn().Err(err).Int("users", len(ids)).Msg("displayNames lookup FAILED")
		return names
	}
	for _, u := range users {
		names[u.UID] = u.DisplayName()
	}
	return names
}

// sortByRecency orders newest first; equal timestamps fall back to user id
// then title id so a given input always sorts the same way.
func sortByRecency(recs []model.ActivityRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.TitleID < b.TitleID
	})
}
