package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordflowlab/voicedoc"
	"github.com/wordflowlab/voicedoc/pkg/logging"
	"github.com/wordflowlab/voicedoc/pkg/telemetry"
	"github.com/wordflowlab/voicedoc/server/handlers"
	"github.com/wordflowlab/voicedoc/server/observability"
	"github.com/wordflowlab/voicedoc/server/ratelimit"
)

// Server is the voicedoc HTTP server
type Server struct {
	config *Config
	router *gin.Engine
	server *http.Server

	deps *Dependencies

	metrics       *observability.MetricsManager
	healthChecker *observability.HealthChecker
	tracing       *observability.TracingManager
	rateLimiter   ratelimit.Limiter
}

// Dependencies holds the injected collaborators for the server.
// All of them are constructed once per process and shared across
// requests; per-request state lives in the handlers.
type Dependencies struct {
	Generator   handlers.Generator
	Retriever   handlers.ContextRetriever
	Ingestor    handlers.Ingestor
	Synthesizer handlers.Synthesizer
	Recorder    telemetry.PipelineRecorder

	// StoreCheck probes the vector store for the health endpoint
	StoreCheck func(ctx context.Context) error
}

// New creates a Server with the given configuration
func New(config *Config, deps *Dependencies, opts ...Option) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if deps == nil || deps.Generator == nil {
		return nil, fmt.Errorf("dependencies with a generator are required")
	}

	if config.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	s := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
	}

	s.initializeObservability()

	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) initializeObservability() {
	if s.config.Observability.Metrics.Enabled {
		s.metrics = observability.NewMetricsManager("voicedoc")
	}

	if s.config.Observability.HealthCheck.Enabled {
		s.healthChecker = observability.NewHealthChecker(voicedoc.Version)
		if s.deps.StoreCheck != nil {
			s.healthChecker.RegisterCheck(
				observability.NewSimpleHealthCheck("vector_store", s.deps.StoreCheck),
			)
		}
	}

	if s.config.RateLimit.Enabled {
		s.rateLimiter = ratelimit.NewSlidingWindow(
			s.config.RateLimit.RequestsPerIP,
			s.config.RateLimit.WindowSize,
		)
	}

	if s.config.Observability.Tracing.Enabled {
		tracing, err := observability.NewTracingManager(observability.TracingConfig{
			Enabled:        true,
			ServiceName:    s.config.Observability.Tracing.ServiceName,
			ServiceVersion: s.config.Observability.Tracing.ServiceVersion,
			Environment:    s.config.Observability.Tracing.Environment,
			OTLPEndpoint:   s.config.Observability.Tracing.OTLPEndpoint,
			OTLPInsecure:   s.config.Observability.Tracing.OTLPInsecure,
			SamplingRate:   s.config.Observability.Tracing.SamplingRate,
		})
		if err != nil {
			logging.Error(context.Background(), "failed to initialize tracing", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			s.tracing = tracing
		}
	}
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(trafficSourceMiddleware())

	if s.config.Observability.Enabled && s.config.Observability.Tracing.Enabled && s.tracing != nil {
		s.router.Use(s.tracing.Middleware())
	}

	if s.config.Logging.Structured {
		s.router.Use(structuredLoggingMiddleware())
	} else {
		s.router.Use(gin.Logger())
	}

	if s.config.CORS.Enabled {
		s.router.Use(corsMiddleware(s.config.CORS))
	}

	if s.config.Observability.Enabled && s.config.Observability.Metrics.Enabled && s.metrics != nil {
		s.router.Use(s.metrics.Middleware())
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logging.Info(context.Background(), "server starting", map[string]interface{}{
		"addr": addr,
		"mode": s.config.Mode,
	})

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if s.tracing != nil {
		if err := s.tracing.Shutdown(ctx); err != nil {
			logging.Warn(ctx, "tracing shutdown error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logging.Info(ctx, "server stopped", nil)
	return nil
}

// Router returns the underlying Gin router for advanced customization
func (s *Server) Router() *gin.Engine {
	return s.router
}
