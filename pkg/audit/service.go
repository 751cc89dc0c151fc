package audit

import (
	"context"

	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

type ListOptions struct {
	StoryID int
	PartID  *int
	Limit   int
	Offset  int
}

// List returns a story's entries, newest first, with the total count.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.StoryAuditLog, int, error) {
	entries := []*models.StoryAuditLog{}

	q := s.db.NewSelect().
		Model(&entries).
		Where("sal.story_id = ?", opts.StoryID).
		Order("sal.created_at DESC", "sal.id DESC")
	if opts.PartID != nil {
		q = q.Where("sal.part_id = ?", *opts.PartID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return entries, total, nil
}
