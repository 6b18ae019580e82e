package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/lab-report-server/internal/domain"
	"github.com/lab-report-server/internal/middleware"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Banner is the plain text body of GET /.
const Banner = "Lab report backend is running. Use POST /analyze."

// HistoryStore is the part of the history store the API exposes.
type HistoryStore interface {
	domain.AnalysisHistory
	Delete(ctx context.Context, id string) error
}

// BreakerStater reports the state of the circuit breaker guarding
// history writes.
type BreakerStater interface {
	State() gobreaker.State
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	analyzer      domain.LabAnalyzer
	history       HistoryStore
	breaker       BreakerStater
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server)

// WithHistory enables the analysis history endpoints.
func WithHistory(history HistoryStore) ServerOption {
	return func(s *Server) {
		s.history = history
	}
}

// WithHistoryBreaker reports the history write breaker on /health.
func WithHistoryBreaker(breaker BreakerStater) ServerOption {
	return func(s *Server) {
		s.breaker = breaker
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, analyzer domain.LabAnalyzer, opts ...ServerOption) (*Server, error) {
	cfg := configManager.GetConfig()

	server := &Server{
		configManager: configManager,
		analyzer:      analyzer,
		logger:        logrus.New(),
	}
	for _, opt := range opts {
		opt(server)
	}

	// Set Gin mode based on environment
	if configManager.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(server.logger))
	router.Use(middleware.Recovery(server.logger))
	corsHandler, err := corsMiddleware(cfg.CORS)
	if err != nil {
		return nil, err
	}
	router.Use(corsHandler)
	router.Use(middleware.SecurityHeaders())

	if cfg.RateLimit.Enabled {
		limiter, err := middleware.NewClientRateLimiter(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		router.Use(middleware.RateLimit(limiter))
	}

	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	server.router = router
	server.setupRoutes()

	return server, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/analyze", s.handleAnalyze)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.GET("/analyses", s.handleListAnalyses)
		v1.GET("/analyses/:id", s.handleGetAnalysis)
		v1.DELETE("/analyses/:id", s.handleDeleteAnalysis)
	}
}

// corsMiddleware allows browser front-ends on the configured origins.
func corsMiddleware(cfg domain.CORSConfig) (gin.HandlerFunc, error) {
	corsConfig := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.CorrelationIDHeader},
		ExposeHeaders: []string{middleware.CorrelationIDHeader},
		MaxAge:        cfg.MaxAge,
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}

	if err := corsConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CORS configuration: %w", err)
	}
	return cors.New(corsConfig), nil
}
