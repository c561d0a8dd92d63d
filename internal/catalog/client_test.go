package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"cinelog/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("NewClient() err = %v, want ErrNotConfigured", err)
	}
}

func TestBuildURL_DefaultsAndOverrides(t *testing.T) {
	c, err := NewClient(Options{APIKey: "k", BaseURL: "https://example.test/3/"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		params   url.Values
		wantLang string
	}{
		{"default language", nil, "en-US"},
		{"caller language kept", url.Values{"language": {"fr-FR"}}, "fr-FR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := c.buildURL("/movie/1", tt.params)
			if err != nil {
				t.Fatal(err)
			}
			u, _ := url.Parse(raw)
			if u.Path != "/3/movie/1" {
				t.Errorf("path = %q, want /3/movie/1", u.Path)
			}
			if got := u.Query().Get("api_key"); got != "k" {
				t.Errorf("api_key = %q, want k", got)
			}
			if got := u.Query().Get("language"); got != tt.wantLang {
				t.Errorf("language = %q, want %q", got, tt.wantLang)
			}
		})
	}
}

func TestMovieDetails_RequestShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/550" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("append_to_response"); got != "credits,recommendations,images" {
			t.Errorf("append_to_response = %q", got)
		}
		w.Write([]byte(`{"id":550,"title":"Fight Club","genres":[{"id":18,"name":"Drama"}],"credits":{"cast":[{"id":1,"name":"Edward Norton"}]}}`))
	})

	m, err := c.MovieDetails(context.Background(), 550)
	if err != nil {
		t.Fatalf("MovieDetails: %v", err)
	}
	if m.ID != 550 || m.Title != "Fight Club" {
		t.Errorf("got %+v", m.CatalogItem)
	}
	if m.MediaType != model.MediaMovie {
		t.Errorf("media type = %q, want movie", m.MediaType)
	}
	if len(m.Genres) != 1 || m.Genres[0].ID != 18 {
		t.Errorf("genres = %+v", m.Genres)
	}
	if m.Credits == nil || len(m.Credits.Cast) != 1 {
		t.Errorf("credits = %+v", m.Credits)
	}
}

func TestGet_NonSuccessCarriesStatusAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status_message":"Invalid API key"}`))
	})

	_, err := c.ShowDetails(context.Background(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "TMDb request failed 401") || !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestGet_NotFoundDoesNotTripBreaker(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 15; i++ {
		_, err := c.PersonDetails(context.Background(), 9)
		if !IsNotFound(err) {
			t.Fatalf("call %d: err = %v, want not found", i, err)
		}
	}
	if calls != 15 {
		t.Errorf("server saw %d calls, want 15", calls)
	}
}

func TestGet_ServerErrorsOpenBreaker(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 10; i++ {
		c.MovieRecommendations(context.Background(), 1, 1)
	}
	_, err := c.MovieRecommendations(context.Background(), 1, 1)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if calls != 10 {
		t.Errorf("server saw %d calls, want 10", calls)
	}
}

func TestBrowse(t *testing.T) {
	rating := 7.5
	ymin, ymax := 1990, 2000

	tests := []struct {
		name      string
		query     BrowseQuery
		wantPath  string
		wantMode  BrowseMode
		checkArgs func(t *testing.T, q url.Values)
	}{
		{
			name:     "text query searches",
			query:    BrowseQuery{Query: "  matrix  "},
			wantPath: "/search/multi",
			wantMode: BrowseSearch,
			checkArgs: func(t *testing.T, q url.Values) {
				if q.Get("query") != "matrix" {
					t.Errorf("query = %q", q.Get("query"))
				}
				if q.Get("include_adult") != "false" {
					t.Errorf("include_adult = %q", q.Get("include_adult"))
				}
			},
		},
		{
			name:     "filters discover",
			query:    BrowseQuery{Genres: []int{28, 35}, MinRating: &rating, YearMin: &ymin, YearMax: &ymax, Page: 2},
			wantPath: "/discover/movie",
			wantMode: BrowseDiscover,
			checkArgs: func(t *testing.T, q url.Values) {
				want := map[string]string{
					"with_genres":              "28,35",
					"vote_average.gte":         "7.5",
					"primary_release_date.gte": "1990-01-01",
					"primary_release_date.lte": "2000-12-31",
					"page":                     "2",
				}
				for k, v := range want {
					if q.Get(k) != v {
						t.Errorf("%s = %q, want %q", k, q.Get(k), v)
					}
				}
			},
		},
		{
			name:      "nothing set lists trending movies",
			query:     BrowseQuery{},
			wantPath:  "/trending/movie/day",
			wantMode:  BrowseTrending,
			checkArgs: func(t *testing.T, q url.Values) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.wantPath {
					t.Errorf("path = %q, want %q", r.URL.Path, tt.wantPath)
				}
				tt.checkArgs(t, r.URL.Query())
				w.Write([]byte(`{"page":1,"total_pages":3,"results":[
					{"id":1,"media_type":"movie","title":"A"},
					{"id":2,"media_type":"person","name":"P"},
					{"id":1,"media_type":"movie","title":"A"},
					{"id":1,"media_type":"tv","name":"A show"}
				]}`))
			})

			res, err := c.Browse(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Browse: %v", err)
			}
			if res.Mode != tt.wantMode {
				t.Errorf("mode = %q, want %q", res.Mode, tt.wantMode)
			}
			if len(res.Results) != 2 {
				t.Fatalf("results = %+v, want movie 1 and tv 1", res.Results)
			}
			for _, item := range res.Results {
				if item.Kind() == model.MediaPerson {
					t.Errorf("person leaked into results: %+v", item)
				}
			}
		})
	}
}

func TestNormalizeQuery_Caps(t *testing.T) {
	long := strings.Repeat("x", 150)
	if got := NormalizeQuery(long); len(got) != MaxQueryLength {
		t.Errorf("len = %d, want %d", len(got), MaxQueryLength)
	}
}

func TestGenreTables(t *testing.T) {
	if n := len(Genres(model.MediaMovie)); n != 19 {
		t.Errorf("movie genres = %d, want 19", n)
	}
	if n := len(Genres(model.MediaTV)); n != 16 {
		t.Errorf("tv genres = %d, want 16", n)
	}

	got := GenreNames([]int{28, 999, 35}, model.MediaMovie)
	if strings.Join(got, ",") != "Action,Comedy" {
		t.Errorf("GenreNames = %v", got)
	}
	if got := GenreName(10759, model.MediaTV); got != "Action & Adventure" {
		t.Errorf("GenreName(tv) = %q", got)
	}
	if got := GenreName(28, "other"); got != "Action" {
		t.Errorf("GenreName(unknown type) = %q, want movie table fallback", got)
	}
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		path, size, want string
	}{
		{"/abc.jpg", "", "https://image.tmdb.org/t/p/w500/abc.jpg"},
		{"/abc.jpg", "original", "https://image.tmdb.org/t/p/original/abc.jpg"},
		{"", "w92", ""},
	}
	for _, tt := range tests {
		if got := ImageURL(tt.path, tt.size); got != tt.want {
			t.Errorf("ImageURL(%q, %q) = %q, want %q", tt.path, tt.size, got, tt.want)
		}
	}
}
