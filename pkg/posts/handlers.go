package posts

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/realtime"
)

type handler struct {
	postService *Service
	hub         *realtime.Hub
}

func (h *handler) post(c echo.Context) (*models.Post, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Post")
	}
	post, err := h.postService.RetrievePost(c.Request().Context(), RetrievePostOptions{ID: &id})
	return post, errors.WithStack(err)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListPostsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	posts, total, err := h.postService.ListPosts(ctx, ListPostsOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		AuthorID: params.AuthorID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Posts []*models.Post `json:"posts"`
		Total int            `json:"total"`
	}{posts, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	params := CreatePostPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	post, err := h.postService.CreatePost(ctx, CreatePostOptions{
		AuthorID: user.ID,
		Content:  params.Content,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.hub.Publish(ctx, models.TablePosts)
	return errors.WithStack(c.JSON(http.StatusCreated, post))
}

func (h *handler) retrieve(c echo.Context) error {
	post, err := h.post(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, post))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	post, err := h.post(c)
	if err != nil {
		return err
	}
	if !post.IsAuthor(auth.UserFromContext(c)) {
		return errcodes.Forbidden("Editing someone else's post")
	}

	params := UpdatePostPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := UpdatePostOptions{}
	if params.Content != post.Content {
		post.Content = params.Content
		opts.Columns = append(opts.Columns, "content")
	}

	if err := h.postService.UpdatePost(ctx, post, opts); err != nil {
		return errors.WithStack(err)
	}

	if len(opts.Columns) > 0 {
		h.hub.Publish(ctx, models.TablePosts)
	}
	return errors.WithStack(c.JSON(http.StatusOK, post))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	post, err := h.post(c)
	if err != nil {
		return err
	}
	if !post.CanDelete(auth.UserFromContext(c)) {
		return errcodes.Forbidden("Deleting someone else's post")
	}

	if err := h.postService.DeletePost(ctx, post.ID); err != nil {
		return errors.WithStack(err)
	}

	h.hub.Publish(ctx, models.TablePosts, models.TablePostRatings, models.TablePostReactions)
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
