package posts

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taleweave/taleweave/internal/testgen"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/binder"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/errcodes"
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

func newTestServer(t *testing.T) *testServer {
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
	RegisterRoutesWithGroup(e.Group("/posts"), db, hub, auth.NewMiddleware(authService))
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

func TestHandler_Board(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	author := testgen.CreateUser(t, s.db, "author", models.RoleUser)
	other := testgen.CreateUser(t, s.db, "other", models.RoleUser)
	admin := testgen.CreateUser(t, s.db, "admin", models.RoleAdmin)

	sub := s.hub.Subscribe(0, models.TablePosts)
	defer sub.Close()

	rec := s.do(t, nil, http.MethodPost, "/posts", `{"content":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, author, http.MethodPost, "/posts", `{"content":"   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, author, http.MethodPost, "/posts", `{"content":"`+strings.Repeat("a", 2001)+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, author, http.MethodPost, "/posts", `{"content":" hello "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	assert.Equal(t, "hello", post.Content)

	select {
	case inv := <-sub.C():
		assert.Equal(t, models.TablePosts, inv.Table)
	default:
		t.Fatal("expected a posts invalidation")
	}

	rec = s.do(t, nil, http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Posts []*models.Post `json:"posts"`
		Total int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	path := fmt.Sprintf("/posts/%d", post.ID)

	rec = s.do(t, other, http.MethodPatch, path, `{"content":"mine now"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, admin, http.MethodPatch, path, `{"content":"admin edit"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, author, http.MethodPatch, path, `{"content":"edited"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edited")

	rec = s.do(t, other, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, admin, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, nil, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
