package stories

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

func (h *handler) part(c echo.Context, story *models.Story) (*models.StoryPart, error) {
	id, err := strconv.Atoi(c.Param("partId"))
	if err != nil {
		return nil, errcodes.NotFound("Part")
	}
	part, err := h.storyService.RetrievePart(c.Request().Context(), RetrievePartOptions{
		ID:      &id,
		StoryID: &story.ID,
	})
	return part, errors.WithStack(err)
}

func (h *handler) choice(c echo.Context, story *models.Story) (*models.StoryChoice, error) {
	id, err := strconv.Atoi(c.Param("choiceId"))
	if err != nil {
		return nil, errcodes.NotFound("Choice")
	}
	choice, err := h.storyService.RetrieveChoice(c.Request().Context(), RetrieveChoiceOptions{
		ID:      &id,
		StoryID: &story.ID,
	})
	return choice, errors.WithStack(err)
}

func (h *handler) createPart(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	story, err := h.editableStory(c)
	if err != nil {
		return err
	}

	params := CreatePartPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	part, err := h.storyService.AddPart(ctx, CreatePartOptions{
		StoryID:   story.ID,
		Content:   params.Content,
		IsStart:   params.IsStart,
		IsEnding:  params.IsEnding,
		CreatedBy: user.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.hub.Publish(ctx, models.TableStoryParts, models.TableStoryAuditLog)
	return errors.WithStack(c.JSON(http.StatusCreated, part))
}

func (h *handler) updatePart(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	story, err := h.editableStory(c)
	if err != nil {
		return err
	}
	part, err := h.part(c, story)
	if err != nil {
		return err
	}

	params := UpdatePartPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := UpdatePartOptions{PerformedBy: user.ID}
	if params.Content != nil && *params.Content != part.Content {
		part.Content = *params.Content
		opts.Columns = append(opts.Columns, "content")
	}
	if params.IsStart != nil && *params.IsStart != part.IsStart {
		part.IsStart = *params.IsStart
		opts.Columns = append(opts.Columns, "is_start")
	}
	if params.IsEnding != nil && *params.IsEnding != part.IsEnding {
		part.IsEnding = *params.IsEnding
		opts.Columns = append(opts.Columns, "is_ending")
	}

	if err := h.storyService.UpdatePart(ctx, part, opts); err != nil {
		return errors.WithStack(err)
	}

	if len(opts.Columns) > 0 {
		h.hub.Publish(ctx, models.TableStoryParts, models.TableStoryAuditLog)
	}
	return errors.WithStack(c.JSON(http.StatusOK, part))
}

func (h *handler) deletePart(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	story, err := h.editableStory(c)
	if err != nil {
		return err
	}
	part, err := h.part(c, story)
	if err != nil {
		return err
	}

	if err := h.storyService.DeletePart(ctx, part, user.ID); err != nil {
		return errors.WithStack(err)
	}

	h.hub.Publish(ctx, models.TableStoryParts, models.TableStoryChoices, models.TableStoryAuditLog)
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) createChoice(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	story, err := h.editableStory(c)
	if err != nil {
		return err
	}
	part, err := h.part(c, story)
	if err != nil {
		return err
	}

	params := CreateChoicePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	choice, err := h.storyService.AddChoice(ctx, CreateChoiceOptions{
		StoryID:    story.ID,
		PartID:     part.ID,
		ChoiceText: params.ChoiceText,
		NextPartID: params.NextPartID,
		OrderIndex: params.OrderIndex,
		CreatedBy:  user.ID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	h.hub.Publish(ctx, models.TableStoryChoices, models.TableStoryAuditLog)
	return errors.WithStack(c.JSON(http.StatusCreated, choice))
}

func (h *handler) updateChoice(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	story, err := h.editableStory(c)
	if err != nil {
		return err
	}
	choice, err := h.choice(c, story)
	if err != nil {
		return err
	}

	params := UpdateChoicePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.ClearNextPart && params.NextPartID != nil {
		return errcodes.ValidationError("Set either next_part_id or clear_next_part, not both.")
	}

	opts := UpdateChoiceOptions{StoryID: story.ID, PerformedBy: user.ID}
	if params.ChoiceText != nil && *params.ChoiceText != choice.ChoiceText {
		choice.ChoiceText = *params.ChoiceText
		opts.Columns = append(opts.Columns, "choice_text")
	}
	if params.NextPartID != nil {
		choice.NextPartID = params.NextPartID
		opts.Columns = append(opts.Columns, "next_part_id")
	}
	if params.ClearNextPart && choice.NextPartID != nil {
		choice.NextPartID = nil
		opts.Columns = append(opts.Columns, "next_part_id")
	}
	if params.OrderIndex != nil && *params.OrderIndex != choice.OrderIndex {
		choice.OrderIndex = *params.OrderIndex
		opts.Columns = append(opts.Columns, "order_index")
	}

	if err := h.storyService.UpdateChoice(ctx, choice, opts); err != nil {
		return errors.WithStack(err)
	}

	if len(opts.Columns) > 0 {
		h.hub.Publish(ctx, models.TableStoryChoices, models.TableStoryAuditLog)
	}
	return errors.WithStack(c.JSON(http.StatusOK, choice))
}

func (h *handler) deleteChoice(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(c)

	story, err := h.editableStory(c)
	if err != nil {
		return err
	}
	choice, err := h.choice(c, story)
	if err != nil {
		return err
	}

	if err := h.storyService.DeleteChoice(ctx, story.ID, choice, user.ID); err != nil {
		return errors.WithStack(err)
	}

	h.hub.Publish(ctx, models.TableStoryChoices, models.TableStoryAuditLog)
	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
