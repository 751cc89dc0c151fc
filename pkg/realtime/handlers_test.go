package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taleweave/taleweave/internal/testgen"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/binder"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

type feedServer struct {
	url  string
	db   *bun.DB
	hub  *Hub
	auth *auth.Service
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()
	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	db := testgen.NewDB(t)
	authService := auth.NewService(db, "test-secret", auth.NewEvents())
	hub := NewHub()
	RegisterRoutes(e, hub, auth.NewMiddleware(authService))

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)
	return &feedServer{url: "ws" + strings.TrimPrefix(srv.URL, "http"), db: db, hub: hub, auth: authService}
}

func (s *feedServer) dial(ctx context.Context, t *testing.T, user *models.User, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if user != nil {
		token, err := s.auth.GenerateToken(user)
		require.NoError(t, err)
		header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return websocket.Dial(ctx, s.url+"/realtime"+query, &websocket.DialOptions{HTTPHeader: header})
}

func TestHandler_Feed(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := newFeedServer(t)
	user := testgen.CreateUser(t, s.db, "reader", models.RoleUser)

	conn, _, err := s.dial(ctx, t, user, "?tables=stories,posts")
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return s.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.hub.Publish(ctx, models.TableStoryRatings, models.TablePosts)

	var inv Invalidation
	require.NoError(t, wsjson.Read(ctx, conn, &inv))
	assert.Equal(t, models.TablePosts, inv.Table)
	assert.NotEmpty(t, inv.Token)

	s.hub.CloseUser(user.ID)
	_, _, err = conn.Read(ctx)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestHandler_FeedRejects(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := newFeedServer(t)
	user := testgen.CreateUser(t, s.db, "reader", models.RoleUser)

	_, resp, err := s.dial(ctx, t, nil, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = s.dial(ctx, t, user, "?tables=secrets")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
