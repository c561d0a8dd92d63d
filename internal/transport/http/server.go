package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cinelog/internal/cache"
	"cinelog/internal/catalog"
	"cinelog/internal/config"
	"cinelog/internal/database"
	"cinelog/internal/feed"
	"cinelog/internal/handler"
	"cinelog/internal/identity"
	"cinelog/internal/logging"
	"cinelog/internal/queue"
	"cinelog/internal/recommend"
	"cinelog/internal/redis"
	"cinelog/internal/repository"
	"cinelog/internal/service"
	"cinelog/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// stores is the backend-specific half of the wiring.
type stores struct {
	users    repository.UserRepository
	activity repository.ActivityRepository
	follows  repository.RelationshipRepository
	watcher  repository.ActivityWatcher
	identity identity.Provider
	close    func() error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &stores{
			users:    repository.NewPostgresUserRepository(db),
			activity: repository.NewPostgresActivityRepository(db),
			follows:  repository.NewPostgresRelationshipRepository(db),
			watcher:  repository.NewPostgresActivityWatcher(database.DSN(cfg)),
			identity: identity.NewLocalProvider(db),
			close:    db.Close,
		}, nil

	default:
		fb, err := database.NewFirebase(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init firebase: %w", err)
		}
		return &stores{
			users:    repository.NewFirestoreUserRepository(fb.Firestore),
			activity: repository.NewFirestoreActivityRepository(fb.Firestore),
			follows:  repository.NewFirestoreRelationshipRepository(fb.Firestore),
			watcher:  repository.NewFirestoreActivityWatcher(fb.Firestore),
			identity: identity.NewFirebaseProvider(fb.Auth, cfg.FirebaseWebAPIKey),
			close:    fb.Close,
		}, nil
	}
}

// pipeline is the recommendation refresh path: where tokens and results live
// and who runs recompute jobs.
type pipeline struct {
	store      recommend.Store
	dispatcher recommend.Dispatcher
	start      func(ctx context.Context, h *worker.Handler) error
	stop       func()
}

func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	if !cfg.UsesRedis() {
		l := logging.L()
		l.Warn().Msg("REDIS_URL not set, recompute jobs run in-process with in-memory state")
		p := &pipeline{store: recommend.NewMemoryStore()}
		var inline *worker.InlineDispatcher
		p.dispatcher = dispatchFunc(func(ctx context.Context, job queue.RecomputeJob) error {
			return inline.Dispatch(ctx, job)
		})
		p.start = func(ctx context.Context, h *worker.Handler) error {
			inline = worker.NewInlineDispatcher(ctx, h)
			return nil
		}
		p.stop = func() {
			if inline != nil {
				inline.Wait()
			}
		}
		return p, nil
	}

	client, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	var manager *worker.Manager
	return &pipeline{
		store:      cache.NewRecommendationCache(client),
		dispatcher: queue.NewPublisher(client),
		start: func(ctx context.Context, h *worker.Handler) error {
			manager = worker.NewManager(queue.NewConsumer(client), h, worker.ManagerConfig{
				WorkerCount: cfg.WorkerCount,
			})
			return manager.Start(ctx)
		},
		stop: func() {
			if manager != nil {
				manager.Stop()
			}
			closeRedis(client)
		},
	}, nil
}

type dispatchFunc func(ctx context.Context, job queue.RecomputeJob) error

func (f dispatchFunc) Dispatch(ctx context.Context, job queue.RecomputeJob) error {
	return f(ctx, job)
}

func closeRedis(client *goredis.Client) {
	if err := client.Close(); err != nil {
		l := logging.L()
		l.Warn().Err(err).Msg("redis close failed")
	}
}

// Run wires the service together and serves HTTP until SIGINT/SIGTERM.
func Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.L()

	// 1. Stores and identity
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Warn().Err(err).Msg("store close failed")
		}
	}()

	// 2. Catalog
	catalogClient, err := catalog.NewClient(catalog.Options{
		APIKey:    cfg.TMDBAPIKey,
		BaseURL:   cfg.TMDBBaseURL,
		RateLimit: cfg.TMDBRateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to init catalog client: %w", err)
	}

	// 3. Recommendation pipeline
	pl, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	engine := recommend.NewEngine(catalogClient, st.activity, recommend.DefaultFanout)
	recService := recommend.NewService(engine, pl.store)
	if err := pl.start(ctx, worker.NewHandler(recService)); err != nil {
		pl.stop()
		return fmt.Errorf("failed to start workers: %w", err)
	}
	refresher := recommend.NewRefresher(pl.store, pl.dispatcher, cfg.RecommendDebounce)

	// Writes made through other processes reach us through the watcher.
	watchCtx, cancelWatch := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if err := st.watcher.WatchActivity(watchCtx, refresher.Trigger); err != nil {
			logger.Error().Err(err).Msg("activity watcher stopped")
		}
	}()

	// 4. Services and handlers
	authService := service.NewAuthService(cfg)
	userService := service.NewUserService(st.users, st.activity, st.follows, st.identity, authService)
	followService := service.NewFollowService(st.follows, st.users)
	activityService := service.NewActivityService(st.activity, refresher)
	aggregator := feed.NewAggregator(st.follows, st.activity, st.users, cfg.FeedFanoutLimit)

	router := NewRouter(RouterConfig{
		AuthHandler:     handler.NewAuthHandler(userService, cfg.CookieSecure),
		UserHandler:     handler.NewUserHandler(userService),
		FollowHandler:   handler.NewFollowHandler(followService),
		ActivityHandler: handler.NewActivityHandler(activityService),
		FeedHandler:     handler.NewFeedHandler(aggregator, recService),
		CatalogHandler:  handler.NewCatalogHandler(catalogClient),
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimit:       cfg.HTTPRateLimit,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Serve
	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("backend", cfg.StoreBackend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-serveErr:
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}

	cancelWatch()
	<-watchDone
	refresher.Stop()
	pl.stop()

	logger.Info().Msg("server stopped")
	return runErr
}
