package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codinground/internal/assistant"
	"codinground/internal/backend"
	"codinground/internal/cache"
	"codinground/internal/config"
	"codinground/internal/events"
	"codinground/internal/handlers"
	"codinground/internal/jobs"
	"codinground/internal/llm"
	_ "codinground/internal/llm/gateway"
	_ "codinground/internal/llm/gemini"
	"codinground/internal/logging"
	"codinground/internal/metrics"
	"codinground/internal/middleware"
	"codinground/internal/problems"
	"codinground/internal/prompts"
	"codinground/internal/routers"
	"codinground/internal/session"
	"codinground/internal/store"
	"codinground/internal/stream"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "codinground",
		Short:        "AI-assisted coding round service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the local store tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	})
	return rootCmd
}

// setup loads configuration and the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

// initDatabase opens the configured database and migrates the store tables.
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.Postgres.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func runMigrate() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if _, err := initDatabase(cfg); err != nil {
		return err
	}
	logger.Info("Database migrated", zap.String("driver", cfg.DBDriver))
	return nil
}

// newBackend picks the interview backend: the remote service, or the local
// store when running standalone.
func newBackend(cfg *config.Config, repo *store.Repository) backend.Backend {
	if cfg.BackendMode == config.BackendLocal && repo != nil {
		return repo
	}
	return backend.NewClient(cfg.BackendURL, cfg.BackendToken, &http.Client{Timeout: 30 * time.Second})
}

func newRouter(cfg *config.Config) *chi.Mux {
	router := chi.NewRouter()

	// cors middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer, metrics.Middleware)
	return router
}

func runServe() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.String("backend_mode", cfg.BackendMode))

	// prompt manager
	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		return fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	// AI provider based on configuration
	aiProvider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to initialize AI provider: %w", err)
	}

	catalog, err := problems.NewCatalog()
	if err != nil {
		return fmt.Errorf("failed to load problem catalog: %w", err)
	}

	healthHandler := handlers.NewHealthHandler(aiProvider, promptManager, cfg)

	var repo *store.Repository
	if cfg.BackendMode == config.BackendLocal {
		db, err := initDatabase(cfg)
		if err != nil {
			return err
		}
		repo = store.NewRepository(db, logger)
		healthHandler.AddDependency("store", repo)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rdb.Close()
		redisPublisher := events.NewRedisPublisher(rdb)
		publisher = redisPublisher
		healthHandler.AddDependency("redis", redisPublisher)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := stream.NewHub(logger)
	go hub.Run(ctx)

	analyses := cache.NewAnalysisCache(cfg.SessionIdleTTL)
	defer analyses.Close()

	manager := session.NewManager(session.Deps{
		Backend:      newBackend(cfg, repo),
		Assistant:    assistant.New(aiProvider, promptManager, cfg.Model, logger),
		Catalog:      catalog,
		Analyses:     analyses,
		Speaker:      hub,
		Screenshots:  hub,
		Navigator:    hub,
		Listener:     hub,
		Events:       publisher,
		Logger:       logger,
		NextURL:      cfg.NextURL,
		RoundSeconds: cfg.RoundSeconds,
	})

	reaper := jobs.NewSessionReaperJob(manager, &jobs.ReaperConfig{
		Schedule: cfg.ReapSchedule,
		IdleTTL:  cfg.SessionIdleTTL,
		Enabled:  true,
	}, logger)
	if err := reaper.Start(); err != nil {
		return err
	}

	router := newRouter(cfg)
	routers.HealthRoutes(router, healthHandler)
	routers.SessionRoutes(router, handlers.NewSessionHandler(manager, hub, logger), middleware.Auth(cfg.JWTSecret))
	if repo != nil {
		routers.BackendRoutes(router, handlers.NewBackendHandler(repo, logger))
	}

	serverAddr := ":" + cfg.Port

	// no write timeout: chat and grading requests wait on the model
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Coding round service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("Coding round service shutting down...")
	reaper.Stop()

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	manager.Close()

	logger.Info("Coding round service exited")
	return nil
}
