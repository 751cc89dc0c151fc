package stories

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/audit"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/metrics"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/realtime"
)

type handler struct {
	storyService *Service
	auditService *audit.Service
	hub          *realtime.Hub
	metrics      *metrics.Metrics
}

// story loads the story in the id param. Stories the viewer may not read are
// reported as missing.
func (h *handler) story(c echo.Context) (*models.Story, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Story")
	}

	story, err := h.storyService.RetrieveStory(c.Request().Context(), RetrieveStoryOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !story.CanRead(auth.UserFromContext(c)) {
		return nil, errcodes.NotFound("Story")
	}
	return story, nil
}

func (h *handler) editableStory(c echo.Context) (*models.Story, error) {
	story, err := h.story(c)
	if err != nil {
		return nil, err
	}
	if !story.CanEdit(auth.UserFromContext(c)) {
		return nil, errcodes.Forbidden("Editing this story")
	}
	return story, nil
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	viewer := auth.UserFromContext(c)

	params := ListStoriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListStoriesOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		AuthorID: params.AuthorID,
		Genre:    params.Genre,
		State:    params.State,
	}
	switch {
	case viewer.IsAdmin():
	case viewer != nil:
		opts.Visible = &viewer.ID
	default:
		published := true
		opts.Published = &published
	}

	stories, total, err := h.storyService.ListStoriesWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Stories []*models.Story `json:"stories"`
		Total   int             `json:"total"`
	}{stories, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	params := CreateStoryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	story, err := h.storyService.CreateStory(ctx, CreateStoryOptions{
		Title:       params.Title,
		Description: params.Description,
		Genre:       params.Genre,
		AuthorID:    user.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.hub.Publish(ctx, models.TableStories, models.TableStoryAuditLog)
	return errors.WithStack(c.JSON(http.StatusCreated, story))
}

func (h *handler) retrieve(c echo.Context) error {
	story, err := h.story(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, story))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	story, err := h.editableStory(c)
	if err != nil {
		return err
	}

	params := UpdateStoryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateStoryOptions{PerformedBy: user.ID}
	if params.Title != nil && *params.Title != story.Title {
		story.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.Description != nil {
		story.Description = params.Description
		opts.Columns = append(opts.Columns, "description")
	}
	if params.Genre != nil {
		story.Genre = params.Genre
		opts.Columns = append(opts.Columns, "genre")
	}
	// Publishing normally goes through review. Admins can still flip the flag
	// directly, which leaves the review stamps as they were.
	if params.IsPublished != nil && *params.IsPublished != story.IsPublished {
		if !user.IsAdmin() {
			return errcodes.Forbidden("Changing the published flag")
		}
		story.IsPublished = *params.IsPublished
		opts.Columns = append(opts.Columns, "is_published")
	}

	if err := h.storyService.UpdateStory(ctx, story, opts); err != nil {
		return errors.WithStack(err)
	}

	if len(opts.Columns) > 0 {
		h.hub.Publish(ctx, models.TableStories, models.TableStoryAuditLog)
	}
	return errors.WithStack(c.JSON(http.StatusOK, story))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	story, err := h.editableStory(c)
	if err != nil {
		return err
	}

	if err := h.storyService.DeleteStory(ctx, story.ID); err != nil {
		return errors.WithStack(err)
	}

	h.hub.Publish(ctx,
		models.TableStories,
		models.TableStoryParts,
		models.TableStoryChoices,
		models.TableStoryRatings,
		models.TableStoryReactions,
		models.TableStoryProgress,
		models.TableUserStoryPaths,
		models.TableStoryAuditLog,
	)
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) graph(c echo.Context) error {
	ctx := c.Request().Context()

	story, err := h.story(c)
	if err != nil {
		return err
	}

	parts, err := h.storyService.RetrieveGraph(ctx, story.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Story *models.Story        `json:"story"`
		Parts []*models.StoryPart `json:"parts"`
	}{story, parts}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) submit(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	story, err := h.editableStory(c)
	if err != nil {
		return err
	}

	if err := h.storyService.Submit(ctx, story, user.ID); err != nil {
		return errors.WithStack(err)
	}

	h.metrics.ModerationAction(models.AuditActionSubmit)
	h.hub.Publish(ctx, models.TableStories, models.TableStoryAuditLog)
	return errors.WithStack(c.JSON(http.StatusOK, story))
}

func (h *handler) publish(c echo.Context) error {
	ctx := c.Request().Context()

	story, err := h.story(c)
	if err != nil {
		return err
	}

	if err := h.storyService.Publish(ctx, story, auth.UserFromContext(c)); err != nil {
		return errors.WithStack(err)
	}

	h.metrics.ModerationAction(models.AuditActionPublish)
	h.hub.Publish(ctx, models.TableStories, models.TableStoryAuditLog)
	return errors.WithStack(c.JSON(http.StatusOK, story))
}

func (h *handler) reject(c echo.Context) error {
	ctx := c.Request().Context()

	story, err := h.story(c)
	if err != nil {
		return err
	}

	if err := h.storyService.Reject(ctx, story, auth.UserFromContext(c)); err != nil {
		return errors.WithStack(err)
	}

	h.metrics.ModerationAction(models.AuditActionReject)
	h.hub.Publish(ctx, models.TableStories, models.TableStoryAuditLog)
	return errors.WithStack(c.JSON(http.StatusOK, story))
}

func (h *handler) auditLog(c echo.Context) error {
	ctx := c.Request().Context()

	story, err := h.editableStory(c)
	if err != nil {
		return err
	}

	params := ListAuditQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries, total, err := h.auditService.List(ctx, audit.ListOptions{
		StoryID: story.ID,
		PartID:  params.PartID,
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Entries []*models.StoryAuditLog `json:"entries"`
		Total   int                     `json:"total"`
	}{entries, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
