package feedback

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/cooldown"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/metrics"
	"github.com/taleweave/taleweave/pkg/posts"
	"github.com/taleweave/taleweave/pkg/realtime"
	"github.com/taleweave/taleweave/pkg/stories"
)

type handler struct {
	feedbackService *Service
	storyService    *stories.Service
	postService     *posts.Service
	limiter         cooldown.Limiter
	hub             *realtime.Hub
	metrics         *metrics.Metrics
}

// resolve checks that the target in the id param exists and is visible to
// the viewer, and returns its id.
func (h *handler) resolve(c echo.Context, t *target) (int, error) {
	ctx := c.Request().Context()

	switch t.name {
	case TargetStory:
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return 0, errcodes.NotFound("Story")
		}
		story, err := h.storyService.RetrieveStory(ctx, stories.RetrieveStoryOptions{ID: &id})
		if err != nil {
			return 0, errors.WithStack(err)
		}
		if !story.CanRead(auth.UserFromContext(c)) {
			return 0, errcodes.NotFound("Story")
		}
		return story.ID, nil
	default:
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			return 0, errcodes.NotFound("Post")
		}
		post, err := h.postService.RetrievePost(ctx, posts.RetrievePostOptions{ID: &id})
		if err != nil {
			return 0, errors.WithStack(err)
		}
		return post.ID, nil
	}
}

func (h *handler) cooldown(c echo.Context, action string, t *target, targetID int) error {
	user := auth.UserFromContext(c)
	ok, err := h.limiter.Allow(c.Request().Context(), cooldown.Key(user.ID, action, t.name, targetID))
	if err != nil {
		return errors.WithStack(err)
	}
	if !ok {
		return errcodes.TooManyRequests()
	}
	return nil
}

func (h *handler) summary(c echo.Context, t *target, targetID int) error {
	opts := SummaryOptions{Target: t.name, TargetID: targetID}
	if user := auth.UserFromContext(c); user != nil {
		opts.ViewerID = &user.ID
	}
	summary, err := h.feedbackService.Summary(c.Request().Context(), opts)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, summary))
}

func (h *handler) rate(t *target) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user := auth.UserFromContext(c)

		targetID, err := h.resolve(c, t)
		if err != nil {
			return err
		}

		params := RatePayload{}
		if err := c.Bind(&params); err != nil {
			return errors.WithStack(err)
		}

		if err := h.cooldown(c, "rate", t, targetID); err != nil {
			return err
		}

		err = h.feedbackService.Rate(ctx, RateOptions{
			Target:   t.name,
			TargetID: targetID,
			UserID:   user.ID,
			Rating:   params.Rating,
		})
		if err != nil {
			return errors.WithStack(err)
		}

		h.metrics.FeedbackAction(t.name, "rating")
		h.hub.Publish(ctx, t.ratings)
		return h.summary(c, t, targetID)
	}
}

func (h *handler) react(t *target) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user := auth.UserFromContext(c)

		targetID, err := h.resolve(c, t)
		if err != nil {
			return err
		}

		params := ReactPayload{}
		if err := c.Bind(&params); err != nil {
			return errors.WithStack(err)
		}

		if err := h.cooldown(c, "react", t, targetID); err != nil {
			return err
		}

		_, err = h.feedbackService.React(ctx, ReactOptions{
			Target:       t.name,
			TargetID:     targetID,
			UserID:       user.ID,
			ReactionType: params.ReactionType,
		})
		if err != nil {
			return errors.WithStack(err)
		}

		h.metrics.FeedbackAction(t.name, params.ReactionType)
		h.hub.Publish(ctx, t.reactions)
		return h.summary(c, t, targetID)
	}
}

func (h *handler) retrieve(t *target) echo.HandlerFunc {
	return func(c echo.Context) error {
		targetID, err := h.resolve(c, t)
		if err != nil {
			return err
		}
		return h.summary(c, t, targetID)
	}
}
