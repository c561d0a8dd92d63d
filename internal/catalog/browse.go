package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"cinelog/internal/model"
)

const MaxQueryLength = 100

type BrowseMode string

const (
	BrowseSearch   BrowseMode = "search"
	BrowseDiscover BrowseMode = "discover"
	BrowseTrending BrowseMode = "trending"
)

// BrowseQuery is the search page input. Nil filters are not applied.
type BrowseQuery struct {
	Query     string
	Genres    []int
	MinRating *float64
	YearMin   *int
	YearMax   *int
	Page      int
}

func (q BrowseQuery) hasFilters() bool {
	return len(q.Genres) > 0 || q.MinRating != nil || q.YearMin != nil || q.YearMax != nil
}

type BrowseResult struct {
	Mode BrowseMode `json:"mode"`
	model.CatalogPage
}

// Browse picks one of three sources: text search when a query is present,
// discover when any filter is set, trending movies otherwise. People are
// dropped from search results and duplicates (by media type and id) removed.
func (c *Client) Browse(ctx context.Context, q BrowseQuery) (*BrowseResult, error) {
	query := NormalizeQuery(q.Query)

	var (
		page *model.CatalogPage
		mode BrowseMode
		err  error
	)
	switch {
	case query != "":
		mode = BrowseSearch
		page, err = c.SearchMulti(ctx, query, q.Page)
	case q.hasFilters():
		mode = BrowseDiscover
		page, err = c.DiscoverMovies(ctx, discoverParams(q))
	default:
		mode = BrowseTrending
		page, err = c.Trending(ctx, string(model.MediaMovie), "day", q.Page)
	}
	if err != nil {
		return nil, err
	}

	results := make([]model.CatalogItem, 0, len(page.Results))
	seen := make(map[string]struct{}, len(page.Results))
	for _, item := range page.Results {
		kind := item.Kind()
		if kind == model.MediaPerson {
			continue
		}
		if mode != BrowseSearch && item.MediaType == "" {
			item.MediaType = kind
		}
		key := fmt.Sprintf("%s:%d", kind, item.ID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		results = append(results, item)
	}
	page.Results = results

	return &BrowseResult{Mode: mode, CatalogPage: *page}, nil
}

// NormalizeQuery trims the query and caps it at MaxQueryLength runes.
func NormalizeQuery(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxQueryLength {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:MaxQueryLength]))
}

func discoverParams(q BrowseQuery) url.Values {
	params := pageParams(q.Page)
	params.Set("include_adult", "false")

	if len(q.Genres) > 0 {
		ids := make([]string, len(q.Genres))
		for i, g := range q.Genres {
			ids[i] = strconv.Itoa(g)
		}
		params.Set("with_genres", strings.Join(ids, ","))
	}
	if q.MinRating != nil {
		params.Set("vote_average.gte", strconv.FormatFloat(*q.MinRating, 'f', -1, 64))
	}
	if q.YearMin != nil {
		params.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", *q.YearMin))
	}
	if q.YearMax != nil {
		params.Set("primary_release_date.lte", fmt.Sprintf("%d-12-31", *q.YearMax))
	}
	return params
}
