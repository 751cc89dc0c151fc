package stories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/audit"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

// Submit sends a story to the review queue. It can be resubmitted after a
// rejection, which moves it back to under_review.
func (s *Service) Submit(ctx context.Context, story *models.Story, performedBy int) error {
	if story.IsPublished {
		return errcodes.ValidationError("This story is already published.")
	}
	if err := s.ValidateForSubmission(ctx, story.ID); err != nil {
		return err
	}

	now := time.Now()
	story.SubmittedAt = &now
	return s.moderate(ctx, story, models.AuditActionSubmit, performedBy, "submitted_at")
}

// Publish approves a story and stamps the review.
func (s *Service) Publish(ctx context.Context, story *models.Story, admin *models.User) error {
	now := time.Now()
	story.IsPublished = true
	story.ReviewedAt = &now
	story.ReviewedBy = &admin.ID
	return s.moderate(ctx, story, models.AuditActionPublish, admin.ID, "is_published", "reviewed_at", "reviewed_by")
}

// Reject turns a story down and stamps the review. A published story that is
// rejected is taken down.
func (s *Service) Reject(ctx context.Context, story *models.Story, admin *models.User) error {
	now := time.Now()
	story.IsPublished = false
	story.ReviewedAt = &now
	story.ReviewedBy = &admin.ID
	return s.moderate(ctx, story, models.AuditActionReject, admin.ID, "is_published", "reviewed_at", "reviewed_by")
}

func (s *Service) moderate(ctx context.Context, story *models.Story, action string, performedBy int, columns ...string) error {
	story.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	err := s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		res, err := db.NewUpdate().
			Model(story).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Story")
		}
		return audit.Append(ctx, db, audit.Action(story.ID, performedBy, action))
	})
	if err != nil {
		return err
	}

	story.State = story.ModerationState()
	return nil
}
