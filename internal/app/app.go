package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/careerlens/assessment-server/internal/config"
	httpapi "github.com/careerlens/assessment-server/internal/http"
	"github.com/careerlens/assessment-server/internal/questionbank"
	"github.com/careerlens/assessment-server/internal/repository"
	"github.com/careerlens/assessment-server/internal/service"
	"github.com/careerlens/assessment-server/pkg/cache"
	dbbuilder "github.com/careerlens/assessment-server/pkg/database"
	"github.com/careerlens/assessment-server/pkg/httpserver"
)

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      *cache.Cache
	sessions   *service.SessionManager
	httpServer *httpserver.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	dbPool, err := dbbuilder.New(
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	if err := repository.Migrate(ctx, dbPool); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	cacheClient, err := cache.New(ctx,
		cache.WithAddress(cfg.RedisAddr),
	)
	if err != nil {
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))

	resultRepo := repository.NewAssessmentResultRepository(dbPool)
	bookmarkRepo := repository.NewBookmarkRepository(dbPool)
	profileRepo := repository.NewProfileRepository(dbPool)
	catalogRepo := repository.NewCatalogRepository(dbPool)
	ephemeralResults := repository.NewEphemeralResultStore(cacheClient)
	localBookmarks := repository.NewLocalBookmarkStore(cacheClient)

	submissionService := service.NewSubmissionService(
		resultRepo,
		ephemeralResults,
		time.Duration(cfg.GuestSlotTTLHours)*time.Hour,
		logger,
	)
	dashboardService := service.NewDashboardService(
		resultRepo,
		bookmarkRepo,
		localBookmarks,
		profileRepo,
		catalogRepo,
		cfg.RecentWindowDays,
		logger,
	)
	sessionManager := service.NewSessionManager(
		submissionService,
		questionbank.Questions(),
		cfg.TestDurationSeconds,
		logger,
	)

	handlers := httpapi.NewHandlers(sessionManager, submissionService, dashboardService, logger)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handlers:       handlers,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	httpServer, err := httpserver.New(router,
		httpserver.WithPort(cfg.HTTPPort),
		httpserver.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	return &App{
		logger:     logger,
		dbPool:     dbPool,
		cache:      cacheClient,
		sessions:   sessionManager,
		httpServer: httpServer,
	}, nil
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	a.logger.Info("application starting")

	a.httpServer.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.logger.Info("application shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	a.sessions.Close()

	if err := a.cache.Close(); err != nil {
		a.logger.Error("cache shutdown error", zap.Error(err))
	}
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
	}

	a.logger.Info("graceful shutdown completed")
	_ = a.logger.Sync()
	return nil
}
