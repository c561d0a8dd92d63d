package handler

import (
	"net/http"

	"cinelog/internal/httputil"
	"cinelog/internal/model"
	"cinelog/internal/service"
)

type ActivityHandler struct {
	activityService *service.ActivityService
}

func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// Update writes the caller's status for a title.
// PUT /activity/{titleID}
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	titleID, ok := int64Param(r, "titleID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid title ID")
		return
	}

	var req model.UpdateStatusRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	rec, err := h.activityService.UpdateStatus(r.Context(), userID, titleID, req)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to update status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// Get returns the caller's record for a title, or 404.
// GET /activity/{titleID}
func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	titleID, ok := int64Param(r, "titleID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid title ID")
		return
	}

	rec, err := h.activityService.GetStatus(r.Context(), userID, titleID)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to load status")
		return
	}
	if rec == nil {
		writeServiceError(r.Context(), w, model.ErrActivityNotFound, "")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// DELETE /activity/{titleID}
func (h *ActivityHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	titleID, ok := int64Param(r, "titleID")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid title ID")
		return
	}

	if err := h.activityService.RemoveStatus(r.Context(), userID, titleID); err != nil {
		writeServiceError(r.Context(), w, err, "Failed to remove status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
