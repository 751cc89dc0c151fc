package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taleweave/taleweave/internal/testgen"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

func newMiddlewareContext() (echo.Context, *http.Request) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, httptest.NewRecorder()), req
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func TestMiddleware_Authenticate(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	m := NewMiddleware(svc)
	user := testgen.CreateUser(t, svc.db, "reader", models.RoleUser)
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	t.Run("accepts a bearer token", func(t *testing.T) {
		c, req := newMiddlewareContext()
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		require.NoError(t, m.Authenticate(okHandler)(c))
		session := SessionFromContext(c)
		require.NotNil(t, session)
		assert.Equal(t, user.ID, session.User.ID)
		assert.Equal(t, token, session.Token)
	})

	t.Run("accepts the session cookie", func(t *testing.T) {
		c, req := newMiddlewareContext()
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		require.NoError(t, m.Authenticate(okHandler)(c))
		assert.Equal(t, user.ID, UserFromContext(c).ID)
	})

	t.Run("rejects requests without a token", func(t *testing.T) {
		c, _ := newMiddlewareContext()
		err := m.Authenticate(okHandler)(c)
		assert.ErrorIs(t, err, errcodes.Unauthorized("Authentication required."))
		assert.Nil(t, SessionFromContext(c))
	})

	t.Run("rejects bad tokens", func(t *testing.T) {
		c, req := newMiddlewareContext()
		req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
		err := m.Authenticate(okHandler)(c)
		assert.ErrorIs(t, err, errcodes.Unauthorized("Invalid or expired token."))
	})
}

func TestMiddleware_AuthenticateOptional(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	m := NewMiddleware(svc)

	c, req := newMiddlewareContext()
	req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
	require.NoError(t, m.AuthenticateOptional(okHandler)(c))
	assert.Nil(t, UserFromContext(c))
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	t.Parallel()
	m := NewMiddleware(nil)

	c, _ := newMiddlewareContext()
	assert.ErrorIs(t, m.RequireAdmin(okHandler)(c), errcodes.Unauthorized("Authentication required."))

	c, _ = newMiddlewareContext()
	WithSession(c, &Session{User: &models.User{ID: 1, Role: models.RoleUser}})
	assert.ErrorIs(t, m.RequireAdmin(okHandler)(c), errcodes.Forbidden("This action"))

	c, _ = newMiddlewareContext()
	WithSession(c, &Session{User: &models.User{ID: 2, Role: models.RoleAdmin}})
	assert.NoError(t, m.RequireAdmin(okHandler)(c))
}
