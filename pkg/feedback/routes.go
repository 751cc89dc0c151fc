package feedback

import (
	"github.com/labstack/echo/v4"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/cooldown"
	"github.com/taleweave/taleweave/pkg/metrics"
	"github.com/taleweave/taleweave/pkg/posts"
	"github.com/taleweave/taleweave/pkg/realtime"
	"github.com/taleweave/taleweave/pkg/stories"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers rating, reaction and summary routes for stories
// and posts. The groups are shared with other packages, so middleware is
// attached per route.
func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, limiter cooldown.Limiter, hub *realtime.Hub, m *metrics.Metrics, authMiddleware *auth.Middleware) {
	h := &handler{
		feedbackService: NewService(db, cfg.TransactionalWrites),
		storyService:    stories.NewService(db, cfg.TransactionalWrites),
		postService:     posts.NewService(db),
		limiter:         limiter,
		hub:             hub,
		metrics:         m,
	}

	for prefix, name := range map[string]string{"/stories/:id": TargetStory, "/posts/:id": TargetPost} {
		t := targets[name]
		g := e.Group(prefix)
		g.PUT("/rating", h.rate(t), authMiddleware.Authenticate)
		g.POST("/reactions", h.react(t), authMiddleware.Authenticate)
		g.GET("/feedback", h.retrieve(t), authMiddleware.AuthenticateOptional)
	}
}
