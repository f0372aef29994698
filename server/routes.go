package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wordflowlab/voicedoc"
	"github.com/wordflowlab/voicedoc/server/handlers"
	"github.com/wordflowlab/voicedoc/server/ratelimit"
)

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	if s.config.Observability.HealthCheck.Enabled {
		s.router.GET(s.config.Observability.HealthCheck.Endpoint, s.healthCheck)
	}
	if s.config.Observability.Metrics.Enabled {
		s.router.GET(s.config.Observability.Metrics.Endpoint, s.metricsHandler)
	}

	v1 := s.router.Group("/v1")

	if s.config.RateLimit.Enabled && s.rateLimiter != nil {
		v1.Use(ratelimit.Middleware(s.rateLimiter))
	}

	s.registerGenerateRoutes(v1)
	s.registerDocumentRoutes(v1)
	s.registerSpeakRoutes(v1)
}

// registerGenerateRoutes wires the question-answering endpoint
func (s *Server) registerGenerateRoutes(rg *gin.RouterGroup) {
	var m handlers.GenerationMetrics
	if s.metrics != nil {
		m = s.metrics
	}
	h := handlers.NewGenerateHandler(s.deps.Generator, s.deps.Retriever, s.deps.Recorder, m)
	rg.POST("/generate", h.Generate)
}

// registerDocumentRoutes wires document ingestion
func (s *Server) registerDocumentRoutes(rg *gin.RouterGroup) {
	if s.deps.Ingestor == nil {
		return
	}
	var m handlers.IngestMetrics
	if s.metrics != nil {
		m = s.metrics
	}
	h := handlers.NewDocumentHandler(s.deps.Ingestor, m)
	rg.POST("/documents", h.Upload)
}

// registerSpeakRoutes wires text-to-speech
func (s *Server) registerSpeakRoutes(rg *gin.RouterGroup) {
	if s.deps.Synthesizer == nil {
		return
	}
	var m handlers.SynthesisMetrics
	if s.metrics != nil {
		m = s.metrics
	}
	h := handlers.NewSpeakHandler(s.deps.Synthesizer, m)
	rg.POST("/speak", h.Speak)
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	if s.healthChecker != nil {
		info := s.healthChecker.Check(c.Request.Context())
		c.JSON(http.StatusOK, info)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   voicedoc.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// metricsHandler handles Prometheus metrics requests
func (s *Server) metricsHandler(c *gin.Context) {
	if s.metrics != nil {
		s.metrics.Handler()(c)
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": "Metrics not enabled",
	})
}
