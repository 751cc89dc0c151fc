package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taleweave/taleweave/internal/testgen"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/metrics"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/reading"
	"github.com/taleweave/taleweave/pkg/realtime"
)

type testServer struct {
	e      *echo.Echo
	deps   Dependencies
	tokens *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.NewForTest()
	m := metrics.New()
	deps := Dependencies{
		DB:       testgen.NewDB(t),
		Hub:      realtime.NewHub(),
		Registry: reading.NewRegistry(time.Hour, m),
		Metrics:  m,
	}
	e, err := NewEcho(cfg, deps)
	require.NoError(t, err)

	return &testServer{e: e, deps: deps, tokens: auth.NewService(deps.DB, cfg.JWTSecret, auth.NewEvents())}
}

func (s *testServer) do(t *testing.T, user *models.User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != nil {
		token, err := s.tokens.GenerateToken(user)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestServer_NotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, nil, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, nil, http.MethodGet, "/stories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, nil, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/stories",status="200"} 1`)
}

func TestServer_AdminRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := testgen.CreateUser(t, s.deps.DB, "admin", models.RoleAdmin)
	reader := testgen.CreateUser(t, s.deps.DB, "reader", models.RoleUser)

	rec := s.do(t, reader, http.MethodGet, "/admin/config", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, admin, http.MethodGet, "/admin/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "jwt_secret")

	rec = s.do(t, reader, http.MethodGet, "/admin/stories?state=under_review", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_SignOutEndsReadingSessions(t *testing.T) {
	s := newTestServer(t)
	author := testgen.CreateUser(t, s.deps.DB, "author", models.RoleUser)
	reader := testgen.CreateUser(t, s.deps.DB, "reader", models.RoleUser)
	g := testgen.CreateStory(t, s.deps.DB, author, testgen.ForkStory(true))

	feed := s.deps.Hub.Subscribe(reader.ID, models.TableStories)

	rec := s.do(t, reader, http.MethodPost, fmt.Sprintf("/stories/%d/sessions", g.Story.ID), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var state reading.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 1, s.deps.Registry.Len())

	rec = s.do(t, reader, http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 0, s.deps.Registry.Len())
	_, open := <-feed.C()
	assert.False(t, open)

	rec = s.do(t, reader, http.MethodGet, "/sessions/"+state.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_FeedbackAndPostsShareRouter(t *testing.T) {
	s := newTestServer(t)
	author := testgen.CreateUser(t, s.deps.DB, "author", models.RoleUser)
	reader := testgen.CreateUser(t, s.deps.DB, "reader", models.RoleUser)
	g := testgen.CreateStory(t, s.deps.DB, author, testgen.ForkStory(true))

	rec := s.do(t, reader, http.MethodPut, fmt.Sprintf("/stories/%d/rating", g.Story.ID), `{"rating":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, reader, http.MethodPost, "/posts", `{"content":"loved the castle"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))

	rec = s.do(t, author, http.MethodPost, fmt.Sprintf("/posts/%d/reactions", post.ID), `{"reaction_type":"like"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, nil, http.MethodGet, fmt.Sprintf("/stories/%d", g.Story.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
