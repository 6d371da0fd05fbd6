package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/arpablo/henni-repo/internal/api/http"
	"github.com/arpablo/henni-repo/internal/api/middleware"
	"github.com/arpablo/henni-repo/internal/infrastructure/config"
	"github.com/arpablo/henni-repo/internal/infrastructure/logging"
	"github.com/arpablo/henni-repo/internal/infrastructure/monitoring"
	"github.com/arpablo/henni-repo/internal/repository"
	"github.com/arpablo/henni-repo/internal/shared/paths"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	repo       *repository.Repository
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	// Initialize logger
	logger, err := logging.New(logging.ConfigFor(cfg.Logging.Level, cfg.Logging.Development))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return New(cfg, logger)
}

// New builds a server around an existing logger.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing repository server",
		zap.String("addr", cfg.Address()),
		zap.String("basedir", cfg.Repository.BaseDir),
		zap.String("uri", cfg.Repository.URI),
	)

	if err := os.MkdirAll(cfg.Repository.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create repository root: %w", err)
	}
	resolver, err := paths.NewResolver(cfg.Repository.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}

	metrics := monitoring.NewMetrics()
	repo := repository.New(resolver,
		repository.WithLogger(logger.Component("repository")),
		repository.WithRecorder(metrics),
		repository.WithFollowLinks(cfg.Repository.FollowLinks),
	)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	}
	router.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Bool("global", cfg.RateLimit.Global),
		)
		limit := middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}
		if cfg.RateLimit.Global {
			router.Use(middleware.GlobalRateLimit(limit))
		} else {
			router.Use(middleware.RateLimit(limit))
		}
	}

	handlers := apihttp.NewHandlers(repo, metrics, logger.Component("api"), cfg.Repository.URI)
	handlers.Register(router)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:    cfg.Address(),
			Handler: router,
		},
		repo:    repo,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops. A server stopped by
// Shutdown returns nil.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests up
// to the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Graceful shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	// Sync logger before exit
	_ = s.logger.Sync()
	return nil
}
