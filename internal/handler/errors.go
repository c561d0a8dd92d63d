package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cinelog/internal/catalog"
	"cinelog/internal/httputil"
	"cinelog/internal/identity"
	"cinelog/internal/logging"
	"cinelog/internal/model"
	"cinelog/internal/transport/http/middleware"
	"cinelog/internal/validation"
)

// writeServiceError maps domain errors to responses. Anything unrecognised is
// logged and reported as an internal error with the given fallback message.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	var verr *validation.Error
	var idErr *identity.Error
	var apiErr *catalog.APIError

	switch {
	case errors.As(err, &verr):
		httputil.WriteValidationError(w, verr)
	case errors.Is(err, model.ErrMissingIdentifiers),
		errors.Is(err, model.ErrInvalidStatus),
		errors.Is(err, model.ErrInvalidMediaType),
		errors.Is(err, model.ErrInvalidUsername),
		errors.Is(err, model.ErrCannotFollowSelf):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrUserNotFound),
		errors.Is(err, model.ErrActivityNotFound):
		httputil.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrUsernameExists):
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, identity.Message(identity.CodeInvalidCredential))
	case errors.As(err, &idErr):
		httputil.WriteIdentityError(w, idErr)
	case catalog.IsNotFound(err):
		httputil.WriteNotFound(w, "Title not found")
	case errors.Is(err, catalog.ErrUnavailable):
		httputil.WriteError(w, http.StatusServiceUnavailable, httputil.ErrCodeBadGateway, "Catalog temporarily unavailable")
	case errors.As(err, &apiErr):
		httputil.WriteBadGateway(w, "Catalog request failed")
	default:
		l := logging.Ctx(ctx)
		l.Error().Err(err).Msg(fallback)
		httputil.WriteInternalError(w, fallback)
	}
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
	}
	return userID, ok
}

func viewerID(r *http.Request) string {
	id, _ := middleware.GetUserIDFromContext(r.Context())
	return id
}

// int64Param parses a positive integer URL parameter.
func int64Param(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// queryInt returns the integer query value or fallback when absent/invalid.
func queryInt(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return v
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
