package stories

import (
	"github.com/labstack/echo/v4"
	"github.com/taleweave/taleweave/pkg/audit"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/metrics"
	"github.com/taleweave/taleweave/pkg/realtime"
	"github.com/uptrace/bun"
)

func newHandler(db *bun.DB, cfg *config.Config, hub *realtime.Hub, m *metrics.Metrics) *handler {
	return &handler{
		storyService: NewService(db, cfg.TransactionalWrites),
		auditService: audit.NewService(db),
		hub:          hub,
		metrics:      m,
	}
}

// RegisterRoutesWithGroup registers the story authoring and browsing routes.
// Browsing works without a session, in which case only published stories are
// visible.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config, hub *realtime.Hub, m *metrics.Metrics, authMiddleware *auth.Middleware) {
	h := newHandler(db, cfg, hub, m)

	g.GET("", h.list, authMiddleware.AuthenticateOptional)
	g.POST("", h.create, authMiddleware.Authenticate)
	g.GET("/:id", h.retrieve, authMiddleware.AuthenticateOptional)
	g.PATCH("/:id", h.update, authMiddleware.Authenticate)
	g.DELETE("/:id", h.delete, authMiddleware.Authenticate)
	g.GET("/:id/graph", h.graph, authMiddleware.AuthenticateOptional)
	g.GET("/:id/audit", h.auditLog, authMiddleware.Authenticate)
	g.POST("/:id/submit", h.submit, authMiddleware.Authenticate)

	g.POST("/:id/parts", h.createPart, authMiddleware.Authenticate)
	g.PATCH("/:id/parts/:partId", h.updatePart, authMiddleware.Authenticate)
	g.DELETE("/:id/parts/:partId", h.deletePart, authMiddleware.Authenticate)
	g.POST("/:id/parts/:partId/choices", h.createChoice, authMiddleware.Authenticate)
	g.PATCH("/:id/choices/:choiceId", h.updateChoice, authMiddleware.Authenticate)
	g.DELETE("/:id/choices/:choiceId", h.deleteChoice, authMiddleware.Authenticate)
}

// RegisterAdminRoutesWithGroup registers the moderation queue. Every route
// requires an admin.
func RegisterAdminRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config, hub *realtime.Hub, m *metrics.Metrics, authMiddleware *auth.Middleware) {
	h := newHandler(db, cfg, hub, m)

	g.Use(authMiddleware.Authenticate, authMiddleware.RequireAdmin)

	g.GET("", h.list)
	g.POST("/:id/publish", h.publish)
	g.POST("/:id/reject", h.reject)
}
