package recommend

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"cinelog/internal/model"
)

type detailsResult struct {
	details *model.MovieDetails
	err     error
}

// detailsMemo caches movie details for the lifetime of one computation.
// Concurrent lookups of the same id share a single catalog call, and failures
// are remembered so a failed title is not fetched twice.
type detailsMemo struct {
	catalog Catalog

	group singleflight.Group
	mu    sync.Mutex
	seen  map[int64]detailsResult
}

func newDetailsMemo(c Catalog) *detailsMemo {
	return &detailsMemo{
		catalog: c,
		seen:    make(map[int64]detailsResult),
	}
}

func (m *detailsMemo) get(ctx context.Context, id int64) (*model.MovieDetails, error) {
	m.mu.Lock()
	if r, ok := m.seen[id]; ok {
		m.mu.Unlock()
		return r.details, r.err
	}
	m.mu.Unlock()

	v, _, _ := m.group.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		m.mu.Lock()
		if r, ok := m.seen[id]; ok {
			m.mu.Unlock()
			return r, nil
		}
		m.mu.Unlock()

		d, err := m.catalog.MovieDetails(ctx, id)
		r := detailsResult{details: d, err: err}

		m.mu.Lock()
		m.seen[id] = r
		m.mu.Unlock()
		return r, nil
	})

	r := v.(detailsResult)
	return r.details, r.err
}
