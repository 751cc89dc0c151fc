package feedback

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
	"github.com/taleweave/taleweave/pkg/binder"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/cooldown"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/metrics"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/realtime"
	"github.com/uptrace/bun"
)

type testServer struct {
	e    *echo.Echo
	db   *bun.DB
	hub  *realtime.Hub
	auth *auth.Service
}

func newTestServer(t *testing.T, limiter cooldown.Limiter) *testServer {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	db := testgen.NewDB(t)
	cfg := config.NewForTest()
	hub := realtime.NewHub()
	authService := auth.NewService(db, cfg.JWTSecret, auth.NewEvents())
	RegisterRoutes(e, db, cfg, limiter, hub, metrics.New(), auth.NewMiddleware(authService))
	return &testServer{e: e, db: db, hub: hub, auth: authService}
}

func (s *testServer) do(t *testing.T, user *models.User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != nil {
		token, err := s.auth.GenerateToken(user)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_StoryFeedback(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, cooldown.Disabled{})
	author := testgen.CreateUser(t, s.db, "author", models.RoleUser)
	reader := testgen.CreateUser(t, s.db, "reader", models.RoleUser)
	story := testgen.CreateStory(t, s.db, author, testgen.StoryOptions{Published: true}).Story
	base := fmt.Sprintf("/stories/%d", story.ID)

	sub := s.hub.Subscribe(0, models.TableStoryRatings)
	defer sub.Close()

	rec := s.do(t, nil, http.MethodPut, base+"/rating", `{"rating":4}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, reader, http.MethodPut, base+"/rating", `{"rating":9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), errRatingRange)

	rec = s.do(t, reader, http.MethodPut, base+"/rating", `{"rating":4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 4.0, summary.AverageRating)
	require.NotNil(t, summary.UserRating)

	select {
	case inv := <-sub.C():
		assert.Equal(t, models.TableStoryRatings, inv.Table)
	default:
		t.Fatal("expected a story_ratings invalidation")
	}

	rec = s.do(t, reader, http.MethodPost, base+"/reactions", `{"reaction_type":"love"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, reader, http.MethodPost, base+"/reactions", `{"reaction_type":"Like"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, nil, http.MethodGet, base+"/feedback", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary = Summary{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalRatings)
	assert.Equal(t, Reactions{Like: 1}, summary.Reactions)
	assert.Nil(t, summary.UserReaction)
}

func TestHandler_HiddenStory(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, cooldown.Disabled{})
	author := testgen.CreateUser(t, s.db, "author", models.RoleUser)
	reader := testgen.CreateUser(t, s.db, "reader", models.RoleUser)
	story := testgen.CreateStory(t, s.db, author, testgen.StoryOptions{}).Story

	rec := s.do(t, reader, http.MethodPut, fmt.Sprintf("/stories/%d/rating", story.ID), `{"rating":5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, author, http.MethodGet, fmt.Sprintf("/stories/%d/feedback", story.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Cooldown(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, cooldown.NewMemoryLimiter(time.Minute))
	author := testgen.CreateUser(t, s.db, "author", models.RoleUser)
	reader := testgen.CreateUser(t, s.db, "reader", models.RoleUser)
	post := &models.Post{AuthorID: author.ID, Content: "board"}
	_, err := s.db.NewInsert().Model(post).Exec(t.Context())
	require.NoError(t, err)
	base := fmt.Sprintf("/posts/%d", post.ID)

	rec := s.do(t, reader, http.MethodPost, base+"/reactions", `{"reaction_type":"like"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, reader, http.MethodPost, base+"/reactions", `{"reaction_type":"like"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "too_many_requests")

	// other actions and other users have their own windows
	rec = s.do(t, reader, http.MethodPut, base+"/rating", `{"rating":3}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, author, http.MethodPost, base+"/reactions", `{"reaction_type":"dislike"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, reader, http.MethodGet, "/posts/999/feedback", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
