package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

const (
	errRatingRange  = "Ratings must be between 1 and 5."
	errReactionType = "Reactions must be like or dislike."
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
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

func lookup(name string) (*target, error) {
	t, ok := targets[name]
	if !ok {
		return nil, errors.Errorf("unknown feedback target %q", name)
	}
	return t, nil
}

type RateOptions struct {
	Target   string
	TargetID int
	UserID   int
	Rating   int
}

// Rate stores the user's rating, replacing any earlier one.
func (s *Service) Rate(ctx context.Context, opts RateOptions) error {
	if opts.Rating < 1 || opts.Rating > 5 {
		return errcodes.ValidationError(errRatingRange)
	}
	t, err := lookup(opts.Target)
	if err != nil {
		return err
	}

	row := t.newRating(opts.UserID, opts.TargetID, opts.Rating, time.Now())
	_, err = s.db.NewInsert().
		Model(row).
		On(fmt.Sprintf("CONFLICT (user_id, %s) DO UPDATE", t.column)).
		Set("rating = EXCLUDED.rating").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return errors.WithStack(err)
}

type ReactOptions struct {
	Target       string
	TargetID     int
	UserID       int
	ReactionType string
}

// React applies a reaction tap. Repeating the current reaction removes it,
// a different one replaces it. The returned type is the user's reaction
// afterwards, or nil if they have none.
func (s *Service) React(ctx context.Context, opts ReactOptions) (*string, error) {
	if opts.ReactionType != models.ReactionLike && opts.ReactionType != models.ReactionDislike {
		return nil, errcodes.ValidationError(errReactionType)
	}
	t, err := lookup(opts.Target)
	if err != nil {
		return nil, err
	}

	var result *string
	err = s.write(ctx, func(ctx context.Context, db bun.IDB) error {
		var id int
		var current string
		err := db.NewSelect().
			TableExpr(t.reactions).
			Column("id", "reaction_type").
			Where("user_id = ?", opts.UserID).
			Where("? = ?", bun.Ident(t.column), opts.TargetID).
			Scan(ctx, &id, &current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return errors.WithStack(err)
		}

		switch {
		case errors.Is(err, sql.ErrNoRows):
			row := t.newReaction(opts.UserID, opts.TargetID, opts.ReactionType, time.Now())
			if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
			result = &opts.ReactionType
		case current == opts.ReactionType:
			_, err := db.NewDelete().
				TableExpr(t.reactions).
				Where("id = ?", id).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		default:
			_, err := db.NewUpdate().
				TableExpr(t.reactions).
				Set("reaction_type = ?", opts.ReactionType).
				Where("id = ?", id).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			result = &opts.ReactionType
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type Reactions struct {
	Like    int `json:"like"`
	Dislike int `json:"dislike"`
}

type Summary struct {
	AverageRating float64   `json:"average_rating"`
	TotalRatings  int       `json:"total_ratings"`
	Reactions     Reactions `json:"reactions"`
	UserReaction  *string   `json:"user_reaction"`
	UserRating    *int      `json:"user_rating"`
}

type SummaryOptions struct {
	Target   string
	TargetID int
	ViewerID *int
}

// Summary aggregates the feedback rows for a target. Nothing is cached, so
// every call reads all of the target's rows.
func (s *Service) Summary(ctx context.Context, opts SummaryOptions) (*Summary, error) {
	t, err := lookup(opts.Target)
	if err != nil {
		return nil, err
	}

	var userIDs, ratings []int
	err = s.db.NewSelect().
		TableExpr(t.ratings).
		Column("user_id", "rating").
		Where("? = ?", bun.Ident(t.column), opts.TargetID).
		Scan(ctx, &userIDs, &ratings)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}

	summary := &Summary{TotalRatings: len(ratings)}
	sum := 0
	for i, r := range ratings {
		sum += r
		if opts.ViewerID != nil && userIDs[i] == *opts.ViewerID {
			rating := r
			summary.UserRating = &rating
		}
	}
	if len(ratings) > 0 {
		summary.AverageRating = math.Round(float64(sum)/float64(len(ratings))*10) / 10
	}

	var reactors []int
	var kinds []string
	err = s.db.NewSelect().
		TableExpr(t.reactions).
		Column("user_id", "reaction_type").
		Where("? = ?", bun.Ident(t.column), opts.TargetID).
		Scan(ctx, &reactors, &kinds)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}

	for i, kind := range kinds {
		switch kind {
		case models.ReactionLike:
			summary.Reactions.Like++
		case models.ReactionDislike:
			summary.Reactions.Dislike++
		}
		if opts.ViewerID != nil && reactors[i] == *opts.ViewerID {
			k := kind
			summary.UserReaction = &k
		}
	}

	return summary, nil
}
