package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/taleweave/taleweave/pkg/errcodes"
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{authService: authService}
}

// tokenFromRequest reads the session cookie, falling back to a bearer token.
func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (m *Middleware) sessionFromRequest(c echo.Context) (*Session, error) {
	token := tokenFromRequest(c)
	if token == "" {
		return nil, errcodes.Unauthorized("Authentication required.")
	}

	claims, err := m.authService.ValidateToken(token)
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid or expired token.")
	}

	user, err := m.authService.RetrieveActiveUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return nil, errcodes.Unauthorized("User not found or inactive.")
	}

	return &Session{User: user, Token: token}, nil
}

// Authenticate requires a valid token for an active user and attaches the
// session to the request.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := m.sessionFromRequest(c)
		if err != nil {
			return err
		}
		WithSession(c, session)
		return next(c)
	}
}

// AuthenticateOptional attaches a session when the request carries a valid
// token and lets anonymous requests through.
func (m *Middleware) AuthenticateOptional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if session, err := m.sessionFromRequest(c); err == nil {
			WithSession(c, session)
		}
		return next(c)
	}
}

// RequireAdmin must be used after Authenticate.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := UserFromContext(c)
		if user == nil {
			return errcodes.Unauthorized("Authentication required.")
		}
		if !user.IsAdmin() {
			return errcodes.Forbidden("This action")
		}
		return next(c)
	}
}
