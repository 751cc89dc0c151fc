package reading

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	echologger "github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/logger"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/taleweave/taleweave/pkg/realtime"
	"github.com/taleweave/taleweave/pkg/stories"
	"github.com/uptrace/bun"
)

type handler struct {
	db             *bun.DB
	readingService *Service
	storyService   *stories.Service
	registry       *Registry
	hub            *realtime.Hub
}

// story loads the story in the id param if the viewer may read it.
func (h *handler) story(c echo.Context) (*models.Story, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Story")
	}
	story, err := h.storyService.RetrieveStory(c.Request().Context(), stories.RetrieveStoryOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !story.CanRead(auth.UserFromContext(c)) {
		return nil, errcodes.NotFound("Story")
	}
	return story, nil
}

func (h *handler) session(c echo.Context) (*Session, error) {
	id, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		return nil, errcodes.NotFound("Reading session")
	}
	return h.registry.Get(id, auth.UserFromContext(c).ID)
}

func (h *handler) startSession(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	story, err := h.story(c)
	if err != nil {
		return err
	}

	graph, err := LoadGraph(ctx, h.db, story.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	session := NewSession(user.ID, graph)
	if err := session.Start(); err != nil {
		return errors.WithStack(err)
	}
	h.registry.Add(session)

	state := session.State()
	if err := h.readingService.UpdateProgress(ctx, user.ID, story.ID, &state.Current.ID); err != nil {
		return errors.WithStack(err)
	}
	h.hub.Publish(ctx, models.TableStoryProgress)

	echologger.FromEchoContext(c).Info("reading session started", logger.Data{
		"session_id": session.ID.String(),
		"story_id":   story.ID,
	})
	return errors.WithStack(c.JSON(http.StatusCreated, state))
}

func (h *handler) retrieveSession(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, session.State()))
}

func (h *handler) choose(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	session, err := h.session(c)
	if err != nil {
		return err
	}

	params := ChoosePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := session.Choose(params.ChoiceID); err != nil {
		return errors.WithStack(err)
	}

	state := session.State()
	if err := h.readingService.UpdateProgress(ctx, user.ID, session.StoryID, &state.Current.ID); err != nil {
		return errors.WithStack(err)
	}
	h.hub.Publish(ctx, models.TableStoryProgress)

	return errors.WithStack(c.JSON(http.StatusOK, state))
}

func (h *handler) complete(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	session, err := h.session(c)
	if err != nil {
		return err
	}

	c.Set("disallow_empty_body", false)
	params := CompletePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	state := session.State()
	if !state.Ended {
		return errcodes.ValidationError("Finish the story before completing it.")
	}

	path, err := h.readingService.CompletePath(ctx, CompletePathOptions{
		UserID:                user.ID,
		StoryID:               session.StoryID,
		Path:                  state.Path,
		ComprehensionResponse: params.ComprehensionResponse,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	h.registry.Remove(session.ID)
	h.hub.Publish(ctx, models.TableUserStoryPaths, models.TableStoryProgress)

	return errors.WithStack(c.JSON(http.StatusOK, PathResponse{path, path.StoryPath.Dedupe()}))
}

func (h *handler) recordPath(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	story, err := h.story(c)
	if err != nil {
		return err
	}

	params := RecordPathPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	path, err := h.readingService.RecordPath(ctx, CompletePathOptions{
		UserID:                user.ID,
		StoryID:               story.ID,
		Path:                  params.StoryPath,
		ComprehensionResponse: params.ComprehensionResponse,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	h.hub.Publish(ctx, models.TableUserStoryPaths, models.TableStoryProgress)

	return errors.WithStack(c.JSON(http.StatusOK, PathResponse{path, path.StoryPath.Dedupe()}))
}

func (h *handler) retrievePath(c echo.Context) error {
	ctx := c.Request().Context()

	story, err := h.story(c)
	if err != nil {
		return err
	}

	path, err := h.readingService.RetrievePath(ctx, auth.UserFromContext(c).ID, story.ID)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, PathResponse{path, path.StoryPath.Dedupe()}))
}

func (h *handler) retrieveProgress(c echo.Context) error {
	ctx := c.Request().Context()

	story, err := h.story(c)
	if err != nil {
		return err
	}

	progress, err := h.readingService.RetrieveProgress(ctx, auth.UserFromContext(c).ID, story.ID)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, progress))
}
