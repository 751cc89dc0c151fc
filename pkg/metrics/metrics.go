// Package metrics exposes Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taleweave/taleweave/pkg/errcodes"
)

// Metrics owns its registry so that tests can create as many as they want.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	moderationActions   *prometheus.CounterVec
	feedbackActions     *prometheus.CounterVec
	readingSessions     prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		moderationActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "story_moderation_actions_total",
				Help: "Story submissions and review decisions.",
			},
			[]string{"action"},
		),
		feedbackActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedback_actions_total",
				Help: "Ratings and reactions recorded, by target and kind.",
			},
			[]string{"target", "kind"},
		),
		readingSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reading_sessions_active",
			Help: "Reading sessions currently held in memory.",
		}),
	}
}

// Middleware records request counts and latencies. Routes are labelled by
// their registered path so that ids don't blow up cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := statusOf(c, err)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// statusOf returns the status the error handler will eventually write.
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var e *errcodes.Error
	if errors.As(err, &e) {
		return e.HTTPCode
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func (m *Metrics) ModerationAction(action string) {
	if m == nil {
		return
	}
	m.moderationActions.WithLabelValues(action).Inc()
}

func (m *Metrics) FeedbackAction(target, kind string) {
	if m == nil {
		return
	}
	m.feedbackActions.WithLabelValues(target, kind).Inc()
}

func (m *Metrics) SetReadingSessions(n int) {
	if m == nil {
		return
	}
	m.readingSessions.Set(float64(n))
}

// Gatherer exposes the registry, mostly for tests in other packages.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func RegisterRoutes(e *echo.Echo, m *Metrics) {
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
}
