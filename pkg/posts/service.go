package posts

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
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

type CreatePostOptions struct {
	AuthorID int
	Content  string
}

func (s *Service) CreatePost(ctx context.Context, opts CreatePostOptions) (*models.Post, error) {
	now := time.Now()
	post := &models.Post{
		CreatedAt: now,
		UpdatedAt: now,
		AuthorID:  opts.AuthorID,
		Content:   opts.Content,
	}

	_, err := s.db.NewInsert().Model(post).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return post, nil
}

type RetrievePostOptions struct {
	ID *int
}

func (s *Service) RetrievePost(ctx context.Context, opts RetrievePostOptions) (*models.Post, error) {
	post := &models.Post{}

	q := s.db.NewSelect().
		Model(post).
		Relation("Author")
	if opts.ID != nil {
		q = q.Where("p.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Post")
		}
		return nil, errors.WithStack(err)
	}
	return post, nil
}

type ListPostsOptions struct {
	Limit    *int
	Offset   *int
	AuthorID *int
}

// ListPosts returns the board, newest first, with the total count.
func (s *Service) ListPosts(ctx context.Context, opts ListPostsOptions) ([]*models.Post, int, error) {
	posts := []*models.Post{}

	q := s.db.NewSelect().
		Model(&posts).
		Relation("Author").
		Order("p.created_at DESC", "p.id DESC")
	if opts.AuthorID != nil {
		q = q.Where("p.author_id = ?", *opts.AuthorID)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return posts, total, nil
}

type UpdatePostOptions struct {
	Columns []string
}

func (s *Service) UpdatePost(ctx context.Context, post *models.Post, opts UpdatePostOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	post.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := s.db.NewUpdate().
		Model(post).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeletePost removes a post. Its ratings and reactions go with it through
// the foreign key cascade.
func (s *Service) DeletePost(ctx context.Context, postID int) error {
	res, err := s.db.NewDelete().
		Model((*models.Post)(nil)).
		Where("id = ?", postID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Post")
	}
	return nil
}
