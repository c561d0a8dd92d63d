package recommend

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"cinelog/internal/catalog"
	"cinelog/internal/logging"
	"cinelog/internal/metrics"
	"cinelog/internal/model"
)

const (
	HistoryScanLimit       = 200
	TopGenreCount          = 3
	TopMovieCount          = 3
	PerGenreLimit          = 6
	BecauseYouWatchedLimit = 12

	DefaultFanout = 4
)

// Catalog is the subset of the media catalog the engine reads.
type Catalog interface {
	MovieDetails(ctx context.Context, id int64) (*model.MovieDetails, error)
	DiscoverMovies(ctx context.Context, params url.Values) (*model.CatalogPage, error)
	MovieRecommendations(ctx context.Context, id int64, page int) (*model.CatalogPage, error)
}

// WatchedLister returns a user's watched movies, newest first. A limit of
// zero or less means no cap.
type WatchedLister interface {
	ListWatchedMovies(ctx context.Context, userID string, limit int) ([]model.ActivityRecord, error)
}

// Engine derives recommendations from a user's watched-movie history.
type Engine struct {
	catalog  Catalog
	activity WatchedLister
	fanout   int
	logger   zerolog.Logger
}

func NewEngine(c Catalog, activity WatchedLister, fanout int) *Engine {
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	return &Engine{
		catalog:  c,
		activity: activity,
		fanout:   fanout,
		logger:   logging.Component("recommend"),
	}
}

// Compute never fails: anything that goes wrong either drops the affected
// contribution or, for the initial history reads, yields the empty result.
func (e *Engine) Compute(ctx context.Context, userID string) *model.Recommendations {
	start := time.Now()
	defer func() {
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	if userID == "" {
		return model.EmptyRecommendations()
	}

	history, watched, err := e.loadHistory(ctx, userID)
	if err != nil {
		e.logger.Warn().Err(err).Str(logging.FieldUserID, userID).Msg("Compute history FAILED")
		return model.EmptyRecommendations()
	}

	memo := newDetailsMemo(e.catalog)
	e.prefetch(ctx, memo, history)

	topGenres := e.topGenres(ctx, memo, history)
	topMovies := e.topRated(ctx, memo, history)
	if len(topGenres) == 0 && len(topMovies) == 0 {
		return model.EmptyRecommendations()
	}

	out := model.EmptyRecommendations()
	out.TopGenres = topGenres
	if len(topMovies) > 0 {
		out.TopMovie = topMovies[0]
	}

	perGenre := make([][]model.CatalogItem, len(topGenres))
	var similar []model.CatalogItem

	p := pool.New().WithMaxGoroutines(e.fanout)
	for i, g := range topGenres {
		p.Go(func() {
			perGenre[i] = e.discoverGenre(ctx, g.ID, watched)
		})
	}
	if out.TopMovie != nil && out.TopMovie.ID != 0 {
		p.Go(func() {
			similar = e.similarTo(ctx, out.TopMovie.ID, watched)
		})
	}
	p.Wait()

	out.InterestBased = mergeUnique(perGenre)
	if similar != nil {
		out.BecauseYouWatched = similar
	}

	e.logger.Debug().
		Str(logging.FieldUserID, userID).
		Int("history", len(history)).
		Int("genres", len(topGenres)).
		Int("interest_based", len(out.InterestBased)).
		Int("because_you_watched", len(out.BecauseYouWatched)).
		Dur("duration", time.Since(start)).
		Msg("Compute OK")
	return out
}

// loadHistory reads the capped scan and the full watched-id set in parallel.
func (e *Engine) loadHistory(ctx context.Context, userID string) ([]model.ActivityRecord, map[int64]struct{}, error) {
	var history, all []model.ActivityRecord

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		recs, err := e.activity.ListWatchedMovies(ctx, userID, HistoryScanLimit)
		history = recs
		return err
	})
	p.Go(func(ctx context.Context) error {
		recs, err := e.activity.ListWatchedMovies(ctx, userID, 0)
		all = recs
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}

	kept := history[:0:0]
	for _, r := range history {
		if r.TitleID > 0 {
			kept = append(kept, r)
		}
	}

	watched := make(map[int64]struct{}, len(all))
	for _, r := range all {
		if r.TitleID > 0 {
			watched[r.TitleID] = struct{}{}
		}
	}
	return kept, watched, nil
}

// prefetch warms the memo for every distinct title in the scan.
func (e *Engine) prefetch(ctx context.Context, memo *detailsMemo, history []model.ActivityRecord) {
	seen := make(map[int64]struct{}, len(history))
	p := pool.New().WithMaxGoroutines(e.fanout)
	for _, r := range history {
		if _, ok := seen[r.TitleID]; ok {
			continue
		}
		seen[r.TitleID] = struct{}{}
		id := r.TitleID
		p.Go(func() {
			_, _ = memo.get(ctx, id)
		})
	}
	p.Wait()
}

// topGenres scores each genre by the mean of the user's ratings across the
// titles carrying it, counting an unrated title as 1.
func (e *Engine) topGenres(ctx context.Context, memo *detailsMemo, history []model.ActivityRecord) []model.GenreScore {
	byID := make(map[int]*model.GenreScore)
	var order []int

	for _, rec := range history {
		details, err := memo.get(ctx, rec.TitleID)
		if err != nil || details == nil {
			continue
		}
		weight := 1.0
		if rec.Rating != nil {
			weight = *rec.Rating
		}
		for _, g := range details.Genres {
			gs, ok := byID[g.ID]
			if !ok {
				name := g.Name
				if name == "" {
					name = catalog.GenreName(g.ID, model.MediaMovie)
				}
				gs = &model.GenreScore{ID: g.ID, Name: name}
				byID[g.ID] = gs
				order = append(order, g.ID)
			}
			gs.Score += weight
			gs.Count++
		}
	}

	scores := make([]model.GenreScore, 0, len(order))
	for _, id := range order {
		gs := *byID[id]
		if gs.Count > 0 {
			gs.Avg = gs.Score / float64(gs.Count)
		}
		scores = append(scores, gs)
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Avg > scores[j].Avg })

	if len(scores) > TopGenreCount {
		scores = scores[:TopGenreCount]
	}
	return scores
}

// topRated picks the highest rated titles, or the most recent ones when
// nothing is rated, and returns the details that could be fetched.
func (e *Engine) topRated(ctx context.Context, memo *detailsMemo, history []model.ActivityRecord) []*model.MovieDetails {
	var rated, unrated []model.ActivityRecord
	for _, r := range history {
		if r.Rating != nil {
			rated = append(rated, r)
		} else {
			unrated = append(unrated, r)
		}
	}

	picked := rated
	if len(rated) > 0 {
		sort.SliceStable(rated, func(i, j int) bool { return *rated[i].Rating > *rated[j].Rating })
	} else {
		sort.SliceStable(unrated, func(i, j int) bool { return unrated[i].UpdatedAt.After(unrated[j].UpdatedAt) })
		picked = unrated
	}
	if len(picked) > TopMovieCount {
		picked = picked[:TopMovieCount]
	}

	movies := make([]*model.MovieDetails, 0, len(picked))
	for _, r := range picked {
		details, err := memo.get(ctx, r.TitleID)
		if err != nil || details == nil {
			continue
		}
		movies = append(movies, details)
	}
	return movies
}

func (e *Engine) discoverGenre(ctx context.Context, genreID int, watched map[int64]struct{}) []model.CatalogItem {
	params := url.Values{
		"with_genres": {strconv.Itoa(genreID)},
		"page":        {"1"},
	}
	page, err := e.catalog.DiscoverMovies(ctx, params)
	if err != nil {
		e.logger.Debug().Err(err).Int("genre_id", genreID).Msg("discover FAILED")
		return nil
	}
	return unwatched(page.Results, watched, PerGenreLimit)
}

func (e *Engine) similarTo(ctx context.Context, movieID int64, watched map[int64]struct{}) []model.CatalogItem {
	page, err := e.catalog.MovieRecommendations(ctx, movieID, 1)
	if err != nil {
		e.logger.Debug().Err(err).Int64("movie_id", movieID).Msg("similar FAILED")
		return nil
	}
	return unwatched(page.Results, watched, BecauseYouWatchedLimit)
}

// unwatched keeps the first limit items whose id is not in watched.
func unwatched(items []model.CatalogItem, watched map[int64]struct{}, limit int) []model.CatalogItem {
	out := make([]model.CatalogItem, 0, limit)
	for _, it := range items {
		if len(out) == limit {
			break
		}
		if _, ok := watched[it.ID]; ok {
			continue
		}
		out = append(out, it)
	}
	return out
}

// mergeUnique concatenates lists in order, keeping the first occurrence of
// each catalog id.
func mergeUnique(lists [][]model.CatalogItem) []model.CatalogItem {
	seen := make(map[int64]struct{})
	out := []model.CatalogItem{}
	for _, list := range lists {
		for _, it := range list {
			if _, ok := seen[it.ID]; ok {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}
