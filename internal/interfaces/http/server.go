// Package http provides the HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application
// service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/insurhub/underwriter/internal/application/service"
	"github.com/insurhub/underwriter/internal/domain/entity"
	ws "github.com/insurhub/underwriter/internal/interfaces/websocket"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config              ServerConfig
	httpServer          *http.Server
	router              *gin.Engine
	underwritingService service.UnderwritingService
	claimService        service.ClaimService
	hub                 *ws.Hub
	logger              Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	underwritingService service.UnderwritingService,
	claimService service.ClaimService,
	hub *ws.Hub,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:              config,
		router:              router,
		underwritingService: underwritingService,
		claimService:        claimService,
		hub:                 hub,
		logger:              logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes. Identity comes from the gateway
// in front of this service via X-User-ID and X-Role headers.
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.underwritingService, s.claimService, s.logger)

	s.router.GET("/health", handlers.HealthCheck)
	s.router.GET("/ws/notifications", identity(), s.serveWebsocket)

	api := s.router.Group("/api", identity())
	{
		api.POST("/applications", handlers.SubmitApplication)
		api.GET("/applications/pending", requireRole(entity.RoleAdmin), handlers.ListPendingApplications)
		api.GET("/applications/:id", handlers.GetApplication)
		api.POST("/applications/:id/decision", requireRole(entity.RoleAdmin), handlers.DecideApplication)

		api.POST("/claims", handlers.SubmitClaim)
		api.GET("/claims/pending", requireRole(entity.RoleAdmin), handlers.ListPendingClaims)
		api.GET("/claims/:id", handlers.GetClaim)
		api.POST("/claims/:id/decision", requireRole(entity.RoleAdmin), handlers.DecideClaim)
		api.POST("/claims/:id/reanalyze", requireRole(entity.RoleAdmin), handlers.ReanalyzeClaim)
		api.POST("/claims/:id/paid", requireRole(entity.RoleAdmin), handlers.MarkClaimPaid)
	}
}

// serveWebsocket subscribes the caller to their notification channels.
func (s *Server) serveWebsocket(c *gin.Context) {
	userID := currentUserID(c)
	role := currentRole(c)
	if err := s.hub.Serve(c.Writer, c.Request, userID, role); err != nil {
		s.logger.Error("Websocket session failed", "error", err, "user_id", userID)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
