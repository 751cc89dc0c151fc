package reading

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

type Service struct {
	db            *bun.DB
	transactional bool
}

func NewService(db *bun.DB, transactional bool) *Service {
	return &Service{db: db, transactional: transactional}
}

func (s *Service) write(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if !s.transactional {
		return fn(ctx, s.db)
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

type CompletePathOptions struct {
	UserID                int
	StoryID               int
	Path                  models.PathEntries
	ComprehensionResponse *string
}

// CompletePath stores the path a reader took through a story and marks the
// story as completed for them. A reader has at most one stored path per
// story, and finishing the story again replaces it.
func (s *Service) CompletePath(ctx context.Context, opts CompletePathOptions) (*models.UserStoryPath, error) {
	now := time.Now()
	path := &models.UserStoryPath{
		CreatedAt:             now,
		UpdatedAt:             now,
		UserID:                opts.UserID,
		StoryID:               opts.StoryID,
		StoryPath:             opts.Path,
		ComprehensionResponse: opts.ComprehensionResponse,
	}

	err := s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		_, err := db.NewInsert().
			Model(path).
			On("CONFLICT (user_id, story_id) DO UPDATE").
			Set("story_path = EXCLUDED.story_path").
			Set("comprehension_response = EXCLUDED.comprehension_response").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		var last *int
		if n := len(opts.Path); n > 0 {
			last = &opts.Path[n-1].PartID
		}
		return upsertProgress(ctx, db, &models.StoryProgress{
			UpdatedAt:     now,
			UserID:        opts.UserID,
			StoryID:       opts.StoryID,
			Completed:     true,
			CurrentPartID: last,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.RetrievePath(ctx, opts.UserID, opts.StoryID)
}

// RecordPath stores a path that was walked on the client. Every entry must
// point at a part of the story, and every choice at a choice of that part
// leading to the next entry's part.
func (s *Service) RecordPath(ctx context.Context, opts CompletePathOptions) (*models.UserStoryPath, error) {
	if err := s.ValidatePath(ctx, opts.StoryID, opts.Path); err != nil {
		return nil, err
	}
	return s.CompletePath(ctx, opts)
}

func (s *Service) ValidatePath(ctx context.Context, storyID int, path models.PathEntries) error {
	if len(path) == 0 {
		return errcodes.ValidationError("A story path needs at least one entry.")
	}

	partIDs := make([]int, 0, len(path))
	choiceIDs := []int{}
	for _, e := range path {
		if e.PartID <= 0 {
			return errcodes.ValidationError("Every path entry needs a part_id.")
		}
		if e.Timestamp.IsZero() {
			return errcodes.ValidationError("Every path entry needs a timestamp.")
		}
		partIDs = append(partIDs, e.PartID)
		if e.ChoiceID != nil {
			choiceIDs = append(choiceIDs, *e.ChoiceID)
		}
	}

	var parts []*models.StoryPart
	err := s.db.NewSelect().
		Model(&parts).
		Column("sp.id").
		Where("sp.story_id = ?", storyID).
		Where("sp.id IN (?)", bun.In(partIDs)).
		Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	known := make(map[int]bool, len(parts))
	for _, p := range parts {
		known[p.ID] = true
	}

	choices := map[int]*models.StoryChoice{}
	if len(choiceIDs) > 0 {
		var rows []*models.StoryChoice
		err := s.db.NewSelect().
			Model(&rows).
			Column("sc.id", "sc.part_id", "sc.next_part_id").
			Where("sc.id IN (?)", bun.In(choiceIDs)).
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		for _, c := range rows {
			choices[c.ID] = c
		}
	}

	for i, e := range path {
		if !known[e.PartID] {
			return errcodes.ValidationError("The path visits a part that isn't in this story.")
		}
		var choice *models.StoryChoice
		if e.ChoiceID != nil {
			choice = choices[*e.ChoiceID]
			if choice == nil || choice.PartID != e.PartID {
				return errcodes.ValidationError("The path makes a choice that doesn't belong to its part.")
			}
		}
		if i == len(path)-1 {
			break
		}
		// Only the final entry may be without a choice.
		if choice == nil {
			return errcodes.ValidationError("Only the last path entry can be without a choice.")
		}
		if choice.NextPartID == nil || *choice.NextPartID != path[i+1].PartID {
			return errcodes.ValidationError("The path doesn't follow its choices.")
		}
	}
	return nil
}

func (s *Service) RetrievePath(ctx context.Context, userID, storyID int) (*models.UserStoryPath, error) {
	path := &models.UserStoryPath{}
	err := s.db.NewSelect().
		Model(path).
		Where("usp.user_id = ?", userID).
		Where("usp.story_id = ?", storyID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Story path")
		}
		return nil, errors.WithStack(err)
	}
	return path, nil
}

// UpdateProgress records where a reader is in a story. It doesn't touch the
// completed flag, so rereading a finished story keeps it finished.
func (s *Service) UpdateProgress(ctx context.Context, userID, storyID int, currentPartID *int) error {
	return upsertProgress(ctx, s.db, &models.StoryProgress{
		UpdatedAt:     time.Now(),
		UserID:        userID,
		StoryID:       storyID,
		CurrentPartID: currentPartID,
	})
}

func upsertProgress(ctx context.Context, db bun.IDB, progress *models.StoryProgress) error {
	q := db.NewInsert().
		Model(progress).
		On("CONFLICT (user_id, story_id) DO UPDATE").
		Set("current_part_id = EXCLUDED.current_part_id").
		Set("updated_at = EXCLUDED.updated_at")
	if progress.Completed {
		q = q.Set("completed = EXCLUDED.completed")
	}
	_, err := q.Exec(ctx)
	return errors.WithStack(err)
}

func (s *Service) RetrieveProgress(ctx context.Context, userID, storyID int) (*models.StoryProgress, error) {
	progress := &models.StoryProgress{}
	err := s.db.NewSelect().
		Model(progress).
		Where("spr.user_id = ?", userID).
		Where("spr.story_id = ?", storyID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Progress")
		}
		return nil, errors.WithStack(err)
	}
	return progress, nil
}
