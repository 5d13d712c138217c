// Package server exposes the retrieval pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parchmentlabs/folio"
	"github.com/parchmentlabs/folio/pkg/config"
	"github.com/parchmentlabs/folio/pkg/server/handlers"
	"github.com/parchmentlabs/folio/pkg/telemetry"
)

// Server represents the HTTP server.
type Server struct {
	config *config.Config
	router *gin.Engine
	folio  folio.Folio
	server *http.Server
}

// New creates a new server instance.
func New(cfg *config.Config, client folio.Folio) *Server {
	return &Server{
		config: cfg,
		folio:  client,
	}
}

// Setup sets up the server routes and middleware.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(requestIDMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes.
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.folio)
	queryHandler := handlers.NewQueryHandler(s.folio)
	indexHandler := handlers.NewIndexHandler(s.folio)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/live", healthHandler.LivenessCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/ask", queryHandler.Ask)
		v1.POST("/search", queryHandler.Search)
		v1.POST("/index", indexHandler.IndexDocument)
		v1.DELETE("/documents/:id", indexHandler.DeleteDocument)
		v1.GET("/stats", indexHandler.Stats)
	}
}

// Start starts the server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestIDMiddleware tags each request with an id so error telemetry can be
// correlated with the request that produced it. Callers may supply their own
// via X-Request-ID.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), telemetry.ContextKeyRequestID, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
