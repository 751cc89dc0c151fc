package realtime

import (
	"github.com/labstack/echo/v4"
	"github.com/taleweave/taleweave/pkg/auth"
)

func RegisterRoutes(e *echo.Echo, hub *Hub, authMiddleware *auth.Middleware) {
	h := &handler{hub: hub}

	e.GET("/realtime", h.feed, authMiddleware.Authenticate)
}
