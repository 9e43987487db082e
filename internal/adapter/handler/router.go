package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/callscopehq/callscope/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg             *config.Config
	artifactHandler *Artifact
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, artifactHandler *Artifact) *Router {
	return &Router{
		cfg:             cfg,
		artifactHandler: artifactHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupArtifactRoutes(v1)
}

// setupArtifactRoutes configures artifact submission and retrieval routes
func (rt *Router) setupArtifactRoutes(g *echo.Group) {
	artifactGroup := g.Group("/artifacts")

	if rt.artifactHandler != nil {
		artifactGroup.POST("", rt.artifactHandler.Submit)
		artifactGroup.GET("", rt.artifactHandler.List)
		artifactGroup.GET("/:id", rt.artifactHandler.Get)
		artifactGroup.POST("/upload", rt.artifactHandler.Upload)
	} else {
		artifactGroup.POST("", rt.notImplemented)
		artifactGroup.GET("", rt.notImplemented)
		artifactGroup.GET("/:id", rt.notImplemented)
		artifactGroup.POST("/upload", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":  "This endpoint is not yet implemented",
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "development"
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": env,
	})
}
