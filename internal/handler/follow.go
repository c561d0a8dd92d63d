package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cinelog/internal/httputil"
	"cinelog/internal/model"
	"cinelog/internal/service"
)

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
	}
}

// POST /users/{user}/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.followService.Follow(r.Context(), followerID, chi.URLParam(r, userParam)); err != nil {
		writeServiceError(r.Context(), w, err, "Failed to follow user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.FollowState{Following: true})
}

// DELETE /users/{user}/follow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.followService.Unfollow(r.Context(), followerID, chi.URLParam(r, userParam)); err != nil {
		writeServiceError(r.Context(), w, err, "Failed to unfollow user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.FollowState{Following: false})
}

// POST /users/{user}/follow/toggle
func (h *FollowHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	following, err := h.followService.ToggleFollow(r.Context(), followerID, chi.URLParam(r, userParam))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to toggle follow")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.FollowState{Following: following})
}

// GET /users/{user}/follow
func (h *FollowHandler) IsFollowing(w http.ResponseWriter, r *http.Request) {
	followerID, ok := requireUser(w, r)
	if !ok {
		return
	}

	following, err := h.followService.IsFollowing(r.Context(), followerID, chi.URLParam(r, userParam))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to check follow state")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.FollowState{Following: following})
}

// GET /users/{user}/following
func (h *FollowHandler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	ids, err := h.followService.GetFollowingIDs(r.Context(), chi.URLParam(r, userParam))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to fetch following")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"ids": nonNil(ids)})
}

// GET /users/{user}/followers
func (h *FollowHandler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	ids, err := h.followService.GetFollowerIDs(r.Context(), chi.URLParam(r, userParam))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to fetch followers")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"ids": nonNil(ids)})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
