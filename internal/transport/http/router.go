package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cinelog/internal/handler"
	"cinelog/internal/httputil"
	"cinelog/internal/logging"
	"cinelog/internal/metrics"
	authmw "cinelog/internal/transport/http/middleware"
)

// authRateLimit caps signup/signin attempts per IP per minute.
const authRateLimit = 20

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler     *handler.AuthHandler
	UserHandler     *handler.UserHandler
	FollowHandler   *handler.FollowHandler
	ActivityHandler *handler.ActivityHandler
	FeedHandler     *handler.FeedHandler
	CatalogHandler  *handler.CatalogHandler
	JWTSecret       string
	AllowedOrigins  []string
	RateLimit       int
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}

		// Public routes - no authentication required
		r.Route("/auth", func(r chi.Router) {
			r.With(httprate.LimitByIP(authRateLimit, time.Minute)).Post("/signup", cfg.AuthHandler.SignUp)
			r.With(httprate.LimitByIP(authRateLimit, time.Minute)).Post("/signin", cfg.AuthHandler.SignIn)
			r.Post("/logout", cfg.AuthHandler.Logout)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/browse", cfg.CatalogHandler.Browse)
			r.Get("/search", cfg.CatalogHandler.Search)
			r.Get("/trending", cfg.CatalogHandler.Trending)
			r.Get("/genres", cfg.CatalogHandler.Genres)
			r.Get("/movies/{id}", cfg.CatalogHandler.Movie)
			r.Get("/movies/{id}/recommendations", cfg.CatalogHandler.MovieRecommendations)
			r.Get("/tv/{id}", cfg.CatalogHandler.Show)
			r.Get("/people/{id}", cfg.CatalogHandler.Person)
		})

		// Public user endpoints with optional authentication
		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.GetByIDs)
			r.Get("/search", cfg.UserHandler.Search)
			r.With(authmw.OptionalAuthMiddleware(cfg.JWTSecret)).Get("/{user}", cfg.UserHandler.GetProfile)
			r.Get("/{user}/following", cfg.FollowHandler.GetFollowing)
			r.Get("/{user}/followers", cfg.FollowHandler.GetFollowers)
		})

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

			r.Get("/me", cfg.AuthHandler.Me)

			r.Get("/users/{user}/follow", cfg.FollowHandler.IsFollowing)
			r.Post("/users/{user}/follow", cfg.FollowHandler.Follow)
			r.Delete("/users/{user}/follow", cfg.FollowHandler.Unfollow)
			r.Post("/users/{user}/follow/toggle", cfg.FollowHandler.Toggle)

			r.Route("/activity/{titleID}", func(r chi.Router) {
				r.Get("/", cfg.ActivityHandler.Get)
				r.Put("/", cfg.ActivityHandler.Update)
				r.Delete("/", cfg.ActivityHandler.Remove)
			})

			r.Get("/feed", cfg.FeedHandler.GetFeed)
			r.Get("/recommendations", cfg.FeedHandler.GetRecommendations)
		})
	})

	return r
}
