package api

import (
	"github.com/permbroker-org/permbroker/pkg/api/handler"
	"github.com/permbroker-org/permbroker/pkg/api/middleware"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health (no auth required)
	s.engine.GET("/health", handler.Health(s.broker))
	s.engine.GET("/healthz", handler.Health(s.broker))

	// API v1 group
	v1 := s.engine.Group("/api/v1")
	v1.Use(middleware.Auth(s.config.APIKey))

	// Frame lifecycle
	frameHandler := handler.NewFrameHandler(s.frames)
	v1.POST("/frame", frameHandler.Create)
	v1.GET("/frame", frameHandler.List)
	v1.GET("/frame/:id", frameHandler.Get)
	v1.DELETE("/frame/:id", frameHandler.Delete)
	v1.POST("/frame/:id/navigate", frameHandler.Navigate)

	// Permission operations
	permissionHandler := handler.NewPermissionHandler(s.broker, s.frames, s.tickets)
	v1.POST("/permission/request", permissionHandler.Request)
	v1.GET("/permission/request/:id", permissionHandler.RequestResult)
	v1.POST("/permission/check", permissionHandler.Check)
	v1.GET("/permission/status", permissionHandler.Status)

	// Prompt queue for approval clients
	promptHandler := handler.NewPromptHandler(s.prompts)
	v1.GET("/prompt", promptHandler.List)
	v1.GET("/prompt/:id", promptHandler.Get)
	v1.POST("/prompt/:id", promptHandler.Decide)
}
