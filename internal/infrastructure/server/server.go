package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/chatgate/internal/api/http"
	"github.com/GriffinCanCode/chatgate/internal/api/middleware"
	"github.com/GriffinCanCode/chatgate/internal/api/ws"
	"github.com/GriffinCanCode/chatgate/internal/domain/session"
	"github.com/GriffinCanCode/chatgate/internal/engine"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/config"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/chatgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chatgate/internal/storage"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *session.Manager
	store    *storage.FileStore
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer builds the dependency graph: store, repositories, engine, manager, router
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logCfg := logging.DefaultConfig()
		if cfg.Logging.Development {
			logCfg = logging.DevelopmentConfig()
		}
		if cfg.Logging.Level != "" {
			logCfg.Level = cfg.Logging.Level
		}
		var err error
		if logger, err = logging.New(logCfg); err != nil {
			return nil, fmt.Errorf("invalid log configuration: %w", err)
		}
	}

	logger.Info("Initializing chatgate",
		zap.String("session", cfg.Session.Name),
		zap.String("engine", cfg.Session.Engine),
		zap.String("worker", cfg.Engine.Endpoint),
	)

	// Selection happens once; the engine is fixed for the process lifetime
	ctor, err := engine.Select(cfg.Session.Engine)
	if err != nil {
		return nil, err
	}
	engineName := engine.Normalize(cfg.Session.Engine)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	store, err := storage.NewFileStore(storage.FileStoreConfig{
		Root:      cfg.Storage.Dir,
		Namespace: engineName,
		CacheSize: cfg.Storage.CacheSize,
		Compress:  cfg.Storage.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	logger.Info("Session store ready", zap.String("dir", store.Dir()), zap.Bool("compress", cfg.Storage.Compress))

	sessions := session.NewManager(session.Config{
		Name:          cfg.Session.Name,
		Engine:        engineName,
		Constructor:   ctor,
		Worker:        engine.WorkerConfig{Endpoint: cfg.Engine.Endpoint, Timeout: cfg.Engine.Timeout},
		Store:         store,
		Auth:          storage.NewAuthRepository(store),
		Configs:       storage.NewConfigRepository(store),
		Mimetypes:     cfg.Media.Mimetypes,
		MaxMediaBytes: cfg.Media.MaxBytes,
		GlobalWebhook: cfg.GlobalWebhook(),
		StopTimeout:   cfg.Server.ShutdownTimeout,
		DrainTimeout:  cfg.Webhook.DrainTimeout,
		Log:           logger,
		Metrics:       metrics,
	})

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	apihttp.NewHandlers(sessions, engineName, logger).Register(router)
	ws.NewHandler(sessions, logger).Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		http:     &http.Server{Addr: net.JoinHostPort(cfg.Server.Host, cfg.Server.Port), Handler: router},
		sessions: sessions,
		store:    store,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run serves HTTP until Close
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts HTTP down, then stops the session keeping its credentials
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop http server: %w", err))
	}
	if err := s.sessions.Shutdown(ctx); err != nil {
		s.logger.Error("Session shutdown failed", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to stop session: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close store: %w", err))
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
