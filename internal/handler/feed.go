package handler

import (
	"net/http"

	"cinelog/internal/feed"
	"cinelog/internal/httputil"
	"cinelog/internal/model"
	"cinelog/internal/recommend"
)

type FeedHandler struct {
	aggregator      *feed.Aggregator
	recommendations *recommend.Service
}

func NewFeedHandler(aggregator *feed.Aggregator, recommendations *recommend.Service) *FeedHandler {
	return &FeedHandler{
		aggregator:      aggregator,
		recommendations: recommendations,
	}
}

// GetFeed returns recent activity from everyone the caller follows. Partial
// failures only shorten the list.
// GET /feed
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	items := h.aggregator.Build(r.Context(), userID)
	httputil.WriteJSON(w, http.StatusOK, model.FeedResponse{Items: items})
}

// GetRecommendations returns the caller's latest recommendations, computing
// them on first use.
// GET /recommendations
func (h *FeedHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.recommendations.Get(r.Context(), userID))
}
