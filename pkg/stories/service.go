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

const errMultipleStarts = "A story can only have one start part"

type Service struct {
	db            *bun.DB
	transactional bool
}

// NewService returns a stories service. When transactional is true, writes
// that touch several rows (cascading deletes, a change plus its audit
// entries) commit or fail together. Otherwise each statement stands alone
// and a failure part way leaves the earlier statements applied.
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

type CreateStoryOptions struct {
	Title       string
	Description *string
	Genre       *string
	AuthorID    int
}

// CreateStory creates an unpublished story.
func (s *Service) CreateStory(ctx context.Context, opts CreateStoryOptions) (*models.Story, error) {
	now := time.Now()
	story := &models.Story{
		CreatedAt:   now,
		UpdatedAt:   now,
		Title:       opts.Title,
		Description: opts.Description,
		Genre:       opts.Genre,
		AuthorID:    opts.AuthorID,
	}

	err := s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		if _, err := db.NewInsert().Model(story).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		return audit.Append(ctx, db, audit.Action(story.ID, opts.AuthorID, models.AuditActionCreate))
	})
	if err != nil {
		return nil, err
	}

	story.State = story.ModerationState()
	return story, nil
}

type RetrieveStoryOptions struct {
	ID *int
}

func (s *Service) RetrieveStory(ctx context.Context, opts RetrieveStoryOptions) (*models.Story, error) {
	story := &models.Story{}

	q := s.db.
		NewSelect().
		Model(story).
		Relation("Author")

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Story")
		}
		return nil, errors.WithStack(err)
	}

	story.State = story.ModerationState()
	return story, nil
}

type ListStoriesOptions struct {
	Limit  *int
	Offset *int

	AuthorID  *int
	Published *bool
	State     *string
	Genre     *string
	// Visible limits the results to published stories plus the given
	// user's own.
	Visible *int

	includeTotal bool
}

func (s *Service) ListStories(ctx context.Context, opts ListStoriesOptions) ([]*models.Story, error) {
	stories, _, err := s.listStoriesWithTotal(ctx, opts)
	return stories, errors.WithStack(err)
}

func (s *Service) ListStoriesWithTotal(ctx context.Context, opts ListStoriesOptions) ([]*models.Story, int, error) {
	opts.includeTotal = true
	return s.listStoriesWithTotal(ctx, opts)
}

func (s *Service) listStoriesWithTotal(ctx context.Context, opts ListStoriesOptions) ([]*models.Story, int, error) {
	var stories []*models.Story
	var total int
	var err error

	q := s.db.
		NewSelect().
		Model(&stories).
		Relation("Author").
		Order("s.updated_at DESC", "s.id DESC")

	if opts.AuthorID != nil {
		q = q.Where("s.author_id = ?", *opts.AuthorID)
	}
	if opts.Published != nil {
		q = q.Where("s.is_published = ?", *opts.Published)
	}
	if opts.Genre != nil {
		q = q.Where("s.genre = ? COLLATE NOCASE", *opts.Genre)
	}
	if opts.State != nil {
		q = whereState(q, *opts.State)
	}
	if opts.Visible != nil {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("s.is_published = TRUE").WhereOr("s.author_id = ?", *opts.Visible)
		})
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	for _, story := range stories {
		story.State = story.ModerationState()
	}
	return stories, total, nil
}

// whereState mirrors models.Story.ModerationState in SQL.
func whereState(q *bun.SelectQuery, state string) *bun.SelectQuery {
	switch state {
	case models.StoryStatePublished:
		return q.Where("s.is_published = TRUE")
	case models.StoryStateDraft:
		return q.Where("s.is_published = FALSE").
			Where("s.submitted_at IS NULL").
			Where("s.reviewed_at IS NULL")
	case models.StoryStateUnderReview:
		return q.Where("s.is_published = FALSE").
			Where("s.submitted_at IS NOT NULL").
			Where("(s.reviewed_at IS NULL OR s.reviewed_at < s.submitted_at)")
	case models.StoryStateRejected:
		return q.Where("s.is_published = FALSE").
			Where("s.reviewed_at IS NOT NULL").
			Where("(s.submitted_at IS NULL OR s.reviewed_at >= s.submitted_at)")
	}
	return q
}

type UpdateStoryOptions struct {
	Columns     []string
	PerformedBy int
}

// UpdateStory saves the given columns of story and logs one audit entry per
// field whose value actually changed.
func (s *Service) UpdateStory(ctx context.Context, story *models.Story, opts UpdateStoryOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	return s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		current := &models.Story{}
		err := db.NewSelect().Model(current).Where("s.id = ?", story.ID).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Story")
			}
			return errors.WithStack(err)
		}

		story.UpdatedAt = time.Now()
		columns := append(opts.Columns, "updated_at")
		_, err = db.NewUpdate().
			Model(story).
			Column(columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		var entries []*models.StoryAuditLog
		for _, col := range opts.Columns {
			oldValue, newValue := storyColumnValues(current, story, col)
			if equal(oldValue, newValue) {
				continue
			}
			entries = append(entries, audit.Change(story.ID, opts.PerformedBy, col, oldValue, newValue))
		}
		story.State = story.ModerationState()
		return audit.Append(ctx, db, entries...)
	})
}

func storyColumnValues(old, updated *models.Story, column string) (*string, *string) {
	switch column {
	case "title":
		return audit.Value(old.Title), audit.Value(updated.Title)
	case "description":
		return audit.Value(old.Description), audit.Value(updated.Description)
	case "genre":
		return audit.Value(old.Genre), audit.Value(updated.Genre)
	case "is_published":
		return audit.Value(old.IsPublished), audit.Value(updated.IsPublished)
	}
	return nil, nil
}

func equal(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// DeleteStory removes a story and everything it owns: its choices, then its
// parts, then the story itself. Ratings, reactions, reading progress, paths
// and the audit log go with the story through foreign key cascades.
func (s *Service) DeleteStory(ctx context.Context, storyID int) error {
	return s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		partIDs := db.NewSelect().
			Model((*models.StoryPart)(nil)).
			ColumnExpr("sp.id").
			Where("sp.story_id = ?", storyID)

		_, err := db.NewDelete().
			Model((*models.StoryChoice)(nil)).
			Where("part_id IN (?)", partIDs).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.NewDelete().
			Model((*models.StoryPart)(nil)).
			Where("story_id = ?", storyID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := db.NewDelete().
			Model((*models.Story)(nil)).
			Where("id = ?", storyID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Story")
		}
		return nil
	})
}

// ValidateForSubmission checks that a story can be read from start to end:
// it needs at least one part and exactly one start part.
func (s *Service) ValidateForSubmission(ctx context.Context, storyID int) error {
	var counts struct {
		Parts  int `bun:"parts"`
		Starts int `bun:"starts"`
	}
	err := s.db.NewSelect().
		Model((*models.StoryPart)(nil)).
		ColumnExpr("COUNT(*) AS parts").
		ColumnExpr("COALESCE(SUM(CASE WHEN sp.is_start THEN 1 ELSE 0 END), 0) AS starts").
		Where("sp.story_id = ?", storyID).
		Scan(ctx, &counts)
	if err != nil {
		return errors.WithStack(err)
	}

	if counts.Parts == 0 {
		return errcodes.ValidationError("A story needs at least one part before it can be submitted.")
	}
	if counts.Starts != 1 {
		return errcodes.ValidationError("A story needs exactly one start part before it can be submitted.")
	}
	return nil
}
