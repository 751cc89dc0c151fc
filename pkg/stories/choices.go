package stories

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/audit"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

const errForeignTarget = "A choice can only lead to a part of the same story."

type CreateChoiceOptions struct {
	StoryID    int
	PartID     int
	ChoiceText string
	NextPartID *int
	OrderIndex *int
	CreatedBy  int
}

// AddChoice adds a choice to a part. A nil NextPartID makes the choice
// terminal. Without an OrderIndex the choice goes after the part's existing
// choices.
func (s *Service) AddChoice(ctx context.Context, opts CreateChoiceOptions) (*models.StoryChoice, error) {
	choice := &models.StoryChoice{
		PartID:     opts.PartID,
		ChoiceText: opts.ChoiceText,
		NextPartID: opts.NextPartID,
	}

	err := s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		if err := checkTarget(ctx, db, opts.StoryID, opts.NextPartID); err != nil {
			return err
		}

		if opts.OrderIndex != nil {
			choice.OrderIndex = *opts.OrderIndex
		} else {
			err := db.NewSelect().
				Model((*models.StoryChoice)(nil)).
				ColumnExpr("COALESCE(MAX(sc.order_index), -1) + 1").
				Where("sc.part_id = ?", opts.PartID).
				Scan(ctx, &choice.OrderIndex)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		if _, err := db.NewInsert().Model(choice).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}

		entry := audit.Action(opts.StoryID, opts.CreatedBy, models.AuditActionCreate)
		entry.PartID = &choice.PartID
		entry.ChoiceID = &choice.ID
		return audit.Append(ctx, db, entry)
	})
	if err != nil {
		return nil, err
	}
	return choice, nil
}

// checkTarget makes sure a choice target exists within the story.
func checkTarget(ctx context.Context, db bun.IDB, storyID int, nextPartID *int) error {
	if nextPartID == nil {
		return nil
	}
	exists, err := db.NewSelect().
		Model((*models.StoryPart)(nil)).
		Where("sp.id = ?", *nextPartID).
		Where("sp.story_id = ?", storyID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.ValidationError(errForeignTarget)
	}
	return nil
}

type RetrieveChoiceOptions struct {
	ID      *int
	StoryID *int
}

func (s *Service) RetrieveChoice(ctx context.Context, opts RetrieveChoiceOptions) (*models.StoryChoice, error) {
	choice := &models.StoryChoice{}

	q := s.db.NewSelect().Model(choice)
	if opts.ID != nil {
		q = q.Where("sc.id = ?", *opts.ID)
	}
	if opts.StoryID != nil {
		q = q.Join("JOIN story_parts AS sp ON sp.id = sc.part_id").
			Where("sp.story_id = ?", *opts.StoryID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Choice")
		}
		return nil, errors.WithStack(err)
	}
	return choice, nil
}

type UpdateChoiceOptions struct {
	StoryID     int
	Columns     []string
	PerformedBy int
}

func (s *Service) UpdateChoice(ctx context.Context, choice *models.StoryChoice, opts UpdateChoiceOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	return s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		current := &models.StoryChoice{}
		err := db.NewSelect().Model(current).Where("sc.id = ?", choice.ID).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Choice")
			}
			return errors.WithStack(err)
		}

		if err := checkTarget(ctx, db, opts.StoryID, choice.NextPartID); err != nil {
			return err
		}

		_, err = db.NewUpdate().
			Model(choice).
			Column(opts.Columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		var entries []*models.StoryAuditLog
		for _, col := range opts.Columns {
			oldValue, newValue := choiceColumnValues(current, choice, col)
			if equal(oldValue, newValue) {
				continue
			}
			entry := audit.Change(opts.StoryID, opts.PerformedBy, col, oldValue, newValue)
			entry.PartID = &choice.PartID
			entry.ChoiceID = &choice.ID
			entries = append(entries, entry)
		}
		return audit.Append(ctx, db, entries...)
	})
}

func choiceColumnValues(old, updated *models.StoryChoice, column string) (*string, *string) {
	switch column {
	case "choice_text":
		return audit.Value(old.ChoiceText), audit.Value(updated.ChoiceText)
	case "next_part_id":
		return audit.Value(old.NextPartID), audit.Value(updated.NextPartID)
	case "order_index":
		return audit.Value(old.OrderIndex), audit.Value(updated.OrderIndex)
	}
	return nil, nil
}

func (s *Service) DeleteChoice(ctx context.Context, storyID int, choice *models.StoryChoice, performedBy int) error {
	return s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		_, err := db.NewDelete().
			Model((*models.StoryChoice)(nil)).
			Where("id = ?", choice.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		entry := audit.Action(storyID, performedBy, models.AuditActionDelete)
		entry.PartID = &choice.PartID
		entry.ChoiceID = &choice.ID
		entry.OldValue = audit.Value(choice.ChoiceText)
		return audit.Append(ctx, db, entry)
	})
}
