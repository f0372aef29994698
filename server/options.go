package server

import "github.com/gin-gonic/gin"

// Option configures a Server at construction time
type Option func(*Server)

// WithMiddleware appends custom gin middlewares ahead of route setup
func WithMiddleware(middlewares ...gin.HandlerFunc) Option {
	return func(s *Server) {
		for _, mw := range middlewares {
			s.router.Use(mw)
		}
	}
}
