package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/playground/internal/api/http"
	"github.com/GriffinCanCode/playground/internal/api/middleware"
	"github.com/GriffinCanCode/playground/internal/api/ws"
	"github.com/GriffinCanCode/playground/internal/catalog"
	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/engine/sink"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/playground/internal/session"
)

// janitorInterval is how often idle sessions are swept
const janitorInterval = time.Minute

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	handler  http.Handler
	http     *http.Server
	pool     *sandbox.Pool
	sessions *session.Manager
	catalog  *catalog.Catalog
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	registry *prometheus.Registry
	tracer   *tracing.Tracer
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return New(cfg, logger, prometheus.NewRegistry())
}

// New builds a server around an existing logger and registry
func New(cfg *config.Config, logger *logging.Logger, registry *prometheus.Registry) (*Server, error) {
	logger.Info("Initializing playground server",
		zap.String("port", cfg.Server.Port),
		zap.Int("pool_size", cfg.Engine.PoolSize),
		zap.Duration("timeout", cfg.Engine.Timeout),
	)

	// Initialize metrics first (needed by other components)
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	// Sandbox pool
	sandboxConfig := sandbox.DefaultConfig()
	sandboxConfig.Timeout = cfg.Engine.Timeout
	if cfg.Engine.MaxCallStackSize > 0 {
		sandboxConfig.MaxCallStackSize = cfg.Engine.MaxCallStackSize
	}
	if cfg.Engine.MaxTimers > 0 {
		sandboxConfig.MaxTimers = cfg.Engine.MaxTimers
	}
	pool, err := sandbox.NewPool(sandboxConfig, cfg.Engine.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox pool: %w", err)
	}

	// Snippet catalog
	cat, err := catalog.NewDefault(logger.Component("catalog"))
	if err != nil {
		pool.Close()
		return nil, err
	}
	if cfg.Catalog.Dir != "" {
		if _, err := cat.LoadDir(cfg.Catalog.Dir, cfg.Catalog.Pattern); err != nil {
			logger.Warn("Failed to load snippet directory",
				zap.String("dir", cfg.Catalog.Dir),
				zap.Error(err))
		}
	}
	metrics.SetSnippets(cat.Len())

	var tracer *tracing.Tracer
	if cfg.Server.Tracing {
		tracer = tracing.New("playground", logger.Component("tracing"))
	}

	// Sessions
	sinkConfig := sink.DefaultConfig()
	sinkConfig.MaxEntries = cfg.Engine.MaxEntries
	sinkConfig.Observer = metrics
	sessions, err := session.NewManager(session.Options{
		Config: session.Config{
			MaxSessions:    cfg.Server.MaxSessions,
			TTL:            cfg.Server.SessionTTL,
			Sink:           sinkConfig,
			EchoResult:     cfg.Engine.EchoResult,
			Hints:          cfg.Engine.Hints,
			MaxSourceBytes: cfg.Engine.MaxSourceBytes,
		},
		Executor: pool,
		Recorder: metrics,
		Observer: metrics,
		Snippets: cat,
		Tracer:   tracer,
		Logger:   logger.Component("session"),
	})
	if err != nil {
		pool.Close()
		return nil, err
	}
	sessions.StartJanitor(janitorInterval)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if tracer != nil {
		router.Use(tracing.HTTPMiddleware(tracer))
	}
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(apihttp.Options{
		Sessions:  sessions,
		Catalog:   cat,
		Metrics:   metrics,
		Pool:      pool,
		MaxUpload: cfg.Engine.MaxSourceBytes,
		Logger:    logger.Component("api"),
	})
	wsHandler := ws.NewHandler(sessions, metrics, logger.Component("ws"))

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Session endpoints
	router.POST("/sessions", handlers.CreateSession)
	router.GET("/sessions", handlers.ListSessions)
	router.GET("/sessions/:id", handlers.GetSession)
	router.DELETE("/sessions/:id", handlers.DeleteSession)
	router.POST("/sessions/:id/run", handlers.Run)
	router.POST("/sessions/:id/run/upload", handlers.RunUpload)
	router.GET("/sessions/:id/console", handlers.GetConsole)
	router.POST("/sessions/:id/console/clear", handlers.ClearConsole)
	router.POST("/sessions/:id/console/toggle", handlers.ToggleConsole)
	router.GET("/sessions/:id/render", handlers.GetRender)

	// WebSocket
	router.GET("/sessions/:id/stream", wsHandler.HandleConnection)

	// Snippet catalog
	router.GET("/snippets", handlers.ListSnippets)
	router.GET("/snippets/:id", handlers.GetSnippet)

	// Metrics endpoints
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/metrics/json", handlers.GetMetricsSummary)

	var handler http.Handler = router
	if cfg.Server.Gzip {
		handler = compress(router)
	}

	logger.Info("Server initialized successfully", zap.Int("snippets", cat.Len()))

	return &Server{
		router:   router,
		handler:  handler,
		pool:     pool,
		sessions: sessions,
		catalog:  cat,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		registry: registry,
		tracer:   tracer,
	}, nil
}

// compress gzips responses except WebSocket upgrades, which need the raw
// connection
func compress(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
		}
	}
	s.sessions.Close()
	if err := s.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close sandbox pool: %w", err))
	}
	if s.tracer != nil {
		s.tracer.Close()
	}

	// Sync logger before exit
	s.logger.Sync()

	return errors.Join(errs...)
}
