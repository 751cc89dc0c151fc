package reading

import (
	"github.com/labstack/echo/v4"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/realtime"
	"github.com/taleweave/taleweave/pkg/stories"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the reading routes. Every route requires a
// session, since progress and paths belong to the reader.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, registry *Registry, hub *realtime.Hub, authMiddleware *auth.Middleware) {
	h := &handler{
		db:             db,
		readingService: NewService(db, cfg.TransactionalWrites),
		storyService:   stories.NewService(db, cfg.TransactionalWrites),
		registry:       registry,
		hub:            hub,
	}

	// The /stories group is shared with the stories package, so middleware
	// is attached per route rather than to the group.
	storyGroup := e.Group("/stories/:id")
	storyGroup.POST("/sessions", h.startSession, authMiddleware.Authenticate)
	storyGroup.POST("/paths", h.recordPath, authMiddleware.Authenticate)
	storyGroup.GET("/paths/me", h.retrievePath, authMiddleware.Authenticate)
	storyGroup.GET("/progress", h.retrieveProgress, authMiddleware.Authenticate)

	sessionGroup := e.Group("/sessions")
	sessionGroup.Use(authMiddleware.Authenticate)
	sessionGroup.GET("/:sessionId", h.retrieveSession)
	sessionGroup.POST("/:sessionId/choose", h.choose)
	sessionGroup.POST("/:sessionId/complete", h.complete)
}
