package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/models"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "taleweave_session"
	// CookieMaxAge is how long the cookie is valid.
	CookieMaxAge = TokenExpiry
)

type handler struct {
	authService *Service
}

func buildMeResponse(user *models.User) *MeResponse {
	return &MeResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
}

func sessionCookie(c echo.Context, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()

	params := RegisterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	_, err := h.authService.Register(ctx, RegisterOptions{
		Username:    params.Username,
		Email:       params.Email,
		DisplayName: params.DisplayName,
		Password:    params.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	session, err := h.authService.SignIn(ctx, params.Username, params.Password)
	if err != nil {
		return errors.WithStack(err)
	}
	c.SetCookie(sessionCookie(c, session.Token, int(CookieMaxAge.Seconds())))

	return errors.WithStack(c.JSON(http.StatusCreated, SessionResponse{
		User:  buildMeResponse(session.User),
		Token: session.Token,
	}))
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	session, err := h.authService.SignIn(ctx, params.Username, params.Password)
	if err != nil {
		return errors.WithStack(err)
	}
	c.SetCookie(sessionCookie(c, session.Token, int(CookieMaxAge.Seconds())))

	return errors.WithStack(c.JSON(http.StatusOK, SessionResponse{
		User:  buildMeResponse(session.User),
		Token: session.Token,
	}))
}

func (h *handler) logout(c echo.Context) error {
	h.authService.SignOut(SessionFromContext(c))
	c.SetCookie(sessionCookie(c, "", -1))
	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully."}))
}

func (h *handler) me(c echo.Context) error {
	return errors.WithStack(c.JSON(http.StatusOK, buildMeResponse(UserFromContext(c))))
}
