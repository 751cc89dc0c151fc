package stories

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/audit"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

type CreatePartOptions struct {
	StoryID   int
	Content   string
	IsStart   bool
	IsEnding  bool
	CreatedBy int
}

// AddPart adds a part to a story. The first part of a story always becomes
// its start part.
//
// The one-start-part rule is checked before the insert rather than enforced
// by the schema, so two concurrent requests can still both succeed.
func (s *Service) AddPart(ctx context.Context, opts CreatePartOptions) (*models.StoryPart, error) {
	part := &models.StoryPart{
		StoryID:   opts.StoryID,
		Content:   opts.Content,
		IsStart:   opts.IsStart,
		IsEnding:  opts.IsEnding,
		CreatedBy: opts.CreatedBy,
		CreatedAt: time.Now(),
	}

	err := s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		existing, err := db.NewSelect().
			Model((*models.StoryPart)(nil)).
			Where("sp.story_id = ?", opts.StoryID).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if existing == 0 {
			part.IsStart = true
		} else if part.IsStart {
			if err := checkNoOtherStart(ctx, db, opts.StoryID, 0); err != nil {
				return err
			}
		}

		if _, err := db.NewInsert().Model(part).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}

		entry := audit.Action(opts.StoryID, opts.CreatedBy, models.AuditActionCreate)
		entry.PartID = &part.ID
		return audit.Append(ctx, db, entry)
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

// checkNoOtherStart fails when the story has a start part other than
// exceptID.
func checkNoOtherStart(ctx context.Context, db bun.IDB, storyID, exceptID int) error {
	exists, err := db.NewSelect().
		Model((*models.StoryPart)(nil)).
		Where("sp.story_id = ?", storyID).
		Where("sp.is_start = TRUE").
		Where("sp.id != ?", exceptID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.ValidationError(errMultipleStarts)
	}
	return nil
}

type RetrievePartOptions struct {
	ID      *int
	StoryID *int
}

func (s *Service) RetrievePart(ctx context.Context, opts RetrievePartOptions) (*models.StoryPart, error) {
	part := &models.StoryPart{}

	q := s.db.NewSelect().Model(part)
	if opts.ID != nil {
		q = q.Where("sp.id = ?", *opts.ID)
	}
	if opts.StoryID != nil {
		q = q.Where("sp.story_id = ?", *opts.StoryID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Part")
		}
		return nil, errors.WithStack(err)
	}
	return part, nil
}

// RetrieveGraph returns every part of a story with its choices in display
// order.
func (s *Service) RetrieveGraph(ctx context.Context, storyID int) ([]*models.StoryPart, error) {
	parts := []*models.StoryPart{}
	err := s.db.NewSelect().
		Model(&parts).
		Relation("Choices", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("sc.order_index ASC", "sc.id ASC")
		}).
		Where("sp.story_id = ?", storyID).
		Order("sp.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, part := range parts {
		if part.Choices == nil {
			part.Choices = []*models.StoryChoice{}
		}
	}
	return parts, nil
}

type UpdatePartOptions struct {
	Columns     []string
	PerformedBy int
}

// UpdatePart saves the given columns of part and logs one audit entry per
// changed field. Turning is_start on is refused while another part of the
// story is the start.
func (s *Service) UpdatePart(ctx context.Context, part *models.StoryPart, opts UpdatePartOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	return s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		current := &models.StoryPart{}
		err := db.NewSelect().Model(current).Where("sp.id = ?", part.ID).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Part")
			}
			return errors.WithStack(err)
		}

		if part.IsStart && !current.IsStart {
			if err := checkNoOtherStart(ctx, db, part.StoryID, part.ID); err != nil {
				return err
			}
		}

		now := time.Now()
		part.ModifiedAt = &now
		part.ModifiedBy = &opts.PerformedBy
		columns := append(opts.Columns, "modified_at", "modified_by")
		_, err = db.NewUpdate().
			Model(part).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		var entries []*models.StoryAuditLog
		for _, col := range opts.Columns {
			oldValue, newValue := partColumnValues(current, part, col)
			if equal(oldValue, newValue) {
				continue
			}
			entry := audit.Change(part.StoryID, opts.PerformedBy, col, oldValue, newValue)
			entry.PartID = &part.ID
			entries = append(entries, entry)
		}
		return audit.Append(ctx, db, entries...)
	})
}

func partColumnValues(old, updated *models.StoryPart, column string) (*string, *string) {
	switch column {
	case "content":
		return audit.Value(old.Content), audit.Value(updated.Content)
	case "is_start":
		return audit.Value(old.IsStart), audit.Value(updated.IsStart)
	case "is_ending":
		return audit.Value(old.IsEnding), audit.Value(updated.IsEnding)
	}
	return nil, nil
}

// DeletePart removes a part and its outgoing choices. Choices in other parts
// that led here become terminal.
func (s *Service) DeletePart(ctx context.Context, part *models.StoryPart, performedBy int) error {
	return s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		_, err := db.NewDelete().
			Model((*models.StoryChoice)(nil)).
			Where("part_id = ?", part.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.NewDelete().
			Model((*models.StoryPart)(nil)).
			Where("id = ?", part.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		entry := audit.Action(part.StoryID, performedBy, models.AuditActionDelete)
		entry.PartID = &part.ID
		entry.OldValue = audit.Value(part.Content)
		return audit.Append(ctx, db, entry)
	})
}
