package handler

import (
	"net/http"
	"time"

	"cinelog/internal/httputil"
	"cinelog/internal/model"
	"cinelog/internal/service"
	"cinelog/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService  *service.UserService
	secureCookie bool
}

func NewAuthHandler(userService *service.UserService, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		secureCookie: secureCookie,
	}
}

// SignUp creates an account and signs it in.
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.userService.SignUp(r.Context(), &req)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to sign up")
		return
	}

	h.setTokenCookie(w, resp)
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// SignIn handles email/password login.
// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.userService.SignIn(r.Context(), &req)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to sign in")
		return
	}

	h.setTokenCookie(w, resp)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// Logout clears the browser cookie. Tokens are stateless, so bearer clients
// simply discard theirs.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me returns the currently authenticated user
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(r.Context(), w, err, "Failed to get user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, resp *model.AuthResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    resp.AccessToken,
		Path:     "/",
		MaxAge:   resp.ExpiresIn,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
