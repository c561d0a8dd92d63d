package handler

import (
	"net/http"
	"strconv"

	"cinelog/internal/catalog"
	"cinelog/internal/httputil"
	"cinelog/internal/model"
)

type CatalogHandler struct {
	client *catalog.Client
}

func NewCatalogHandler(client *catalog.Client) *CatalogHandler {
	return &CatalogHandler{
		client: client,
	}
}

// Browse serves the search page: text search, filtered discover or trending.
// GET /catalog/browse?q=&genres=&rating=&ymin=&ymax=&page=
func (h *CatalogHandler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := catalog.BrowseQuery{
		Query: q.Get("q"),
		Page:  queryInt(r, "page", 1),
	}
	for _, raw := range splitCSV(q.Get("genres")) {
		id, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid genre id")
			return
		}
		query.Genres = append(query.Genres, id)
	}
	if v := q.Get("rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil || rating < 0 || rating > 10 {
			httputil.WriteBadRequest(w, "rating must be between 0 and 10")
			return
		}
		query.MinRating = &rating
	}
	if v := q.Get("ymin"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid ymin")
			return
		}
		query.YearMin = &year
	}
	if v := q.Get("ymax"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteBadRequest(w, "Invalid ymax")
			return
		}
		query.YearMax = &year
	}

	result, err := h.client.Browse(r.Context(), query)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to browse catalog")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// GET /catalog/search?q=&page=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := catalog.NormalizeQuery(r.URL.Query().Get("q"))
	if query == "" {
		httputil.WriteBadRequest(w, "q is required")
		return
	}

	page, err := h.client.SearchMulti(r.Context(), query, queryInt(r, "page", 1))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to search catalog")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// GET /catalog/trending?media_type=&window=&page=
func (h *CatalogHandler) Trending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mediaType := q.Get("media_type")
	switch mediaType {
	case "":
		mediaType = "all"
	case "all", string(model.MediaMovie), string(model.MediaTV), string(model.MediaPerson):
	default:
		httputil.WriteBadRequest(w, "media_type must be all, movie, tv or person")
		return
	}
	window := q.Get("window")
	switch window {
	case "":
		window = "day"
	case "day", "week":
	default:
		httputil.WriteBadRequest(w, "window must be day or week")
		return
	}

	page, err := h.client.Trending(r.Context(), mediaType, window, queryInt(r, "page", 1))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to load trending")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// GET /catalog/movies/{id}
func (h *CatalogHandler) Movie(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid movie ID")
		return
	}

	details, err := h.client.MovieDetails(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to load movie")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

// GET /catalog/movies/{id}/recommendations
func (h *CatalogHandler) MovieRecommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid movie ID")
		return
	}

	page, err := h.client.MovieRecommendations(r.Context(), id, queryInt(r, "page", 1))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to load recommendations")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

// GET /catalog/tv/{id}
func (h *CatalogHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid show ID")
		return
	}

	details, err := h.client.ShowDetails(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to load show")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

// GET /catalog/people/{id}
func (h *CatalogHandler) Person(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid person ID")
		return
	}

	details, err := h.client.PersonDetails(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to load person")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

// Genres serves the static genre table; no upstream call.
// GET /catalog/genres?media_type=movie|tv
func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	mediaType := model.MediaType(r.URL.Query().Get("media_type"))
	if mediaType == "" {
		mediaType = model.MediaMovie
	}
	if !mediaType.Valid() {
		httputil.WriteBadRequest(w, "media_type must be movie or tv")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]model.Genre{"genres": catalog.Genres(mediaType)})
}
