package config

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers config routes on a group that already
// requires an administrator.
func RegisterRoutesWithGroup(g *echo.Group, cfg *Config) {
	h := &handler{config: cfg}

	g.GET("", h.retrieve)
}
