package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wordflowlab/voicedoc/pkg/logging"
)

// TrafficHeader marks synthetic traffic so dashboards can separate it
// from real user requests.
const TrafficHeader = "X-Voicedoc-Traffic"

// requestIDMiddleware adds a unique request ID to each request and
// threads it through the logging context.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// trafficSourceMiddleware classifies the request as user or synthetic
// traffic based on the traffic header. Missing or unknown values count
// as real user traffic.
func trafficSourceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		source := strings.ToLower(c.GetHeader(TrafficHeader))
		switch source {
		case "synthetic", "loadtest", "canary":
		default:
			source = "user"
		}
		c.Set("trafficSource", source)
		c.Next()
	}
}

// structuredLoggingMiddleware logs requests through the shared logger
func structuredLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logging.Info(c.Request.Context(), "http request", map[string]interface{}{
			"method":  c.Request.Method,
			"path":    path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"traffic": c.GetString("trafficSource"),
		})
	}
}

// corsMiddleware handles CORS
func corsMiddleware(config CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range config.AllowOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if len(config.AllowOrigins) == 1 && config.AllowOrigins[0] == "*" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Methods", strings.Join(config.AllowMethods, ", "))
			c.Header("Access-Control-Allow-Headers", strings.Join(config.AllowHeaders, ", "))
			if config.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
