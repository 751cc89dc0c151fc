package users

import (
	"github.com/labstack/echo/v4"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the user routes. Every route requires a
// session.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{userService: NewService(db)}

	g.Use(authMiddleware.Authenticate)

	g.GET("", h.list, authMiddleware.RequireAdmin)
	g.PATCH("/me", h.updateMe)
	g.POST("/me/password", h.changePassword)
	g.GET("/:id", h.retrieve)
	g.DELETE("/:id", h.deactivate, authMiddleware.RequireAdmin)
}
