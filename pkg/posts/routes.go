package posts

import (
	"github.com/labstack/echo/v4"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/realtime"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the board routes. Anyone can read the
// board; writing requires a session.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, hub *realtime.Hub, authMiddleware *auth.Middleware) {
	h := &handler{postService: NewService(db), hub: hub}

	g.GET("", h.list)
	g.POST("", h.create, authMiddleware.Authenticate)
	g.GET("/:id", h.retrieve)
	g.PATCH("/:id", h.update, authMiddleware.Authenticate)
	g.DELETE("/:id", h.delete, authMiddleware.Authenticate)
}
