package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cinelog/internal/httputil"
	"cinelog/internal/service"
)

// maxBatchIDs bounds GET /users?ids=.
const maxBatchIDs = 100

// userParam is the /users/{user} segment: a username on the profile route and
// a user id on the follow routes.
const userParam = "user"

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetProfile returns a user's page by username.
// GET /users/{user}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, userParam))
	if username == "" {
		httputil.WriteBadRequest(w, "Username is required")
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), username, viewerID(r))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to load profile")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// Search is a username prefix search.
// GET /users/search?username=
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.FindUsersByUsername(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to search users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// GetByIDs resolves a comma separated id list; unknown ids are skipped.
// GET /users?ids=a,b
func (h *UserHandler) GetByIDs(w http.ResponseWriter, r *http.Request) {
	ids := splitCSV(r.URL.Query().Get("ids"))
	if len(ids) > maxBatchIDs {
		httputil.WriteBadRequest(w, "Too many ids")
		return
	}

	users, err := h.userService.GetUsersByIDs(r.Context(), ids)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to load users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}
