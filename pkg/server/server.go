package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/binder"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/cooldown"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/feedback"
	"github.com/taleweave/taleweave/pkg/metrics"
	"github.com/taleweave/taleweave/pkg/posts"
	"github.com/taleweave/taleweave/pkg/reading"
	"github.com/taleweave/taleweave/pkg/realtime"
	"github.com/taleweave/taleweave/pkg/stories"
	"github.com/taleweave/taleweave/pkg/users"
	"github.com/uptrace/bun"
)

// Dependencies are the long-lived pieces shared between the server and the
// rest of the process. Redis is optional.
type Dependencies struct {
	DB       *bun.DB
	Redis    *redis.Client
	Hub      *realtime.Hub
	Registry *reading.Registry
	Metrics  *metrics.Metrics
}

func New(cfg *config.Config, deps Dependencies) (*http.Server, error) {
	e, err := NewEcho(cfg, deps)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// NewEcho builds the router with every route registered.
func NewEcho(cfg *config.Config, deps Dependencies) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())
	e.Use(deps.Metrics.Middleware())

	health.RegisterRoutes(e)
	metrics.RegisterRoutes(e, deps.Metrics)

	authService := auth.NewService(deps.DB, cfg.JWTSecret, auth.NewEvents())
	authMiddleware := auth.NewMiddleware(authService)
	auth.RegisterRoutes(e, authService, authMiddleware)

	// Signing out ends the user's reading sessions and closes their feeds.
	deps.Hub.Watch(authService.Events())
	deps.Registry.Watch(authService.Events())

	users.RegisterRoutesWithGroup(e.Group("/users"), deps.DB, authMiddleware)

	stories.RegisterRoutesWithGroup(e.Group("/stories"), deps.DB, cfg, deps.Hub, deps.Metrics, authMiddleware)
	reading.RegisterRoutes(e, deps.DB, cfg, deps.Registry, deps.Hub, authMiddleware)
	posts.RegisterRoutesWithGroup(e.Group("/posts"), deps.DB, deps.Hub, authMiddleware)

	limiter := cooldown.New(deps.Redis, cfg.ReactionCooldown)
	feedback.RegisterRoutes(e, deps.DB, cfg, limiter, deps.Hub, deps.Metrics, authMiddleware)

	realtime.RegisterRoutes(e, deps.Hub, authMiddleware)

	adminGroup := e.Group("/admin")
	stories.RegisterAdminRoutesWithGroup(adminGroup.Group("/stories"), deps.DB, cfg, deps.Hub, deps.Metrics, authMiddleware)
	configGroup := adminGroup.Group("/config")
	configGroup.Use(authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	config.RegisterRoutesWithGroup(configGroup, cfg)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
