package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/taleweave/taleweave/pkg/errcodes"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	t.Parallel()
	m := New()

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/stories/:id", func(c echo.Context) error {
		if c.Param("id") == "404" {
			return errcodes.NotFound("Story")
		}
		return c.NoContent(http.StatusOK)
	})

	for _, path := range []string{"/stories/1", "/stories/2", "/stories/404"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/stories/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/stories/:id", "404")))
}

func TestDomainCounters(t *testing.T) {
	t.Parallel()
	m := New()

	m.ModerationAction("publish")
	m.ModerationAction("publish")
	m.FeedbackAction("story", "rating")
	m.SetReadingSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.moderationActions.WithLabelValues("publish")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedbackActions.WithLabelValues("story", "rating")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.readingSessions))
}

func TestNilMetricsIsANoop(t *testing.T) {
	t.Parallel()
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ModerationAction("reject")
		m.FeedbackAction("post", "reaction")
		m.SetReadingSessions(1)
	})
}

func TestHandler_ExposesMetrics(t *testing.T) {
	t.Parallel()
	m := New()
	m.ModerationAction("submit")

	e := echo.New()
	RegisterRoutes(e, m)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `story_moderation_actions_total{action="submit"} 1`)
}
