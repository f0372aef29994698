package server

import (
	"time"

	"github.com/wordflowlab/voicedoc"
)

// Config holds all configuration for the voicedoc HTTP server
type Config struct {
	Host string
	Port int
	Mode string // "development" or "production"

	CORS          CORSConfig
	RateLimit     RateLimitConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	Enabled          bool
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled       bool
	RequestsPerIP int
	WindowSize    time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	Structured bool
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Enabled     bool
	Metrics     MetricsConfig
	Tracing     TracingConfig
	HealthCheck HealthCheckConfig
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled  bool
	Endpoint string
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	OTLPInsecure   bool
	SamplingRate   float64
}

// HealthCheckConfig holds health check settings
type HealthCheckConfig struct {
	Enabled  bool
	Endpoint string
}

// DefaultConfig returns a default configuration for development
func DefaultConfig() *Config {
	return &Config{
		Host: "0.0.0.0",
		Port: 8080,
		Mode: "development",
		CORS: CORSConfig{
			Enabled:          true,
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Voicedoc-Traffic"},
			AllowCredentials: false,
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			RequestsPerIP: 100,
			WindowSize:    time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
		Observability: ObservabilityConfig{
			Enabled: true,
			Metrics: MetricsConfig{
				Enabled:  true,
				Endpoint: "/metrics",
			},
			Tracing: TracingConfig{
				Enabled:        false,
				ServiceName:    "voicedoc",
				ServiceVersion: voicedoc.Version,
				Environment:    "development",
				OTLPEndpoint:   "localhost:4318",
				OTLPInsecure:   true,
				SamplingRate:   1.0,
			},
			HealthCheck: HealthCheckConfig{
				Enabled:  true,
				Endpoint: "/healthz",
			},
		},
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // generation can take two full model calls
		IdleTimeout:  120 * time.Second,
	}
}

// ProductionConfig returns a configuration suitable for production
func ProductionConfig() *Config {
	config := DefaultConfig()
	config.Mode = "production"
	config.CORS.AllowOrigins = []string{}
	config.RateLimit.RequestsPerIP = 1000
	config.Observability.Tracing.Enabled = true
	config.Observability.Tracing.Environment = "production"
	return config
}
