package users

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

type handler struct {
	userService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListUsersQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	users, total, err := h.userService.ListUsers(ctx, ListUsersOptions{
		Limit:  params.Limit,
		Offset: params.Offset,
		Role:   params.Role,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Users []*models.User `json:"users"`
		Total int            `json:"total"`
	}{users, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	user, err := h.userService.RetrieveUser(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	// Admins and the user themselves get the full record.
	viewer := auth.UserFromContext(c)
	if viewer.IsAdmin() || viewer.ID == user.ID {
		return errors.WithStack(c.JSON(http.StatusOK, user))
	}
	return errors.WithStack(c.JSON(http.StatusOK, newProfile(user)))
}

func (h *handler) updateMe(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	params := UpdateMePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateUserOptions{}
	if params.Email != nil && (user.Email == nil || *user.Email != *params.Email) {
		user.Email = params.Email
		opts.Columns = append(opts.Columns, "email")
	}
	if params.DisplayName != nil && (user.DisplayName == nil || *user.DisplayName != *params.DisplayName) {
		user.DisplayName = params.DisplayName
		opts.Columns = append(opts.Columns, "display_name")
	}

	if err := h.userService.UpdateUser(ctx, user, opts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, user))
}

func (h *handler) changePassword(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	params := ChangePasswordPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.userService.ChangePassword(ctx, user, params.CurrentPassword, params.NewPassword); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handler) deactivate(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("User")
	}

	if viewer := auth.UserFromContext(c); viewer.ID == id {
		return errcodes.Forbidden("Deactivating yourself")
	}

	user, err := h.userService.RetrieveUser(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.userService.Deactivate(ctx, user); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
