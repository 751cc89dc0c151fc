package users

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

// Service handles user operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new users service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

type RetrieveUserOptions struct {
	ID       *int
	Username *string
}

func (s *Service) RetrieveUser(ctx context.Context, opts RetrieveUserOptions) (*models.User, error) {
	user := &models.User{}
	q := s.db.NewSelect().Model(user)
	if opts.ID != nil {
		q = q.Where("u.id = ?", *opts.ID)
	}
	if opts.Username != nil {
		q = q.Where("u.username = ? COLLATE NOCASE", *opts.Username)
	}
	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

type ListUsersOptions struct {
	Limit  int
	Offset int
	Role   *string
}

// ListUsers returns a page of users along with the total count.
func (s *Service) ListUsers(ctx context.Context, opts ListUsersOptions) ([]*models.User, int, error) {
	users := []*models.User{}

	q := s.db.NewSelect().
		Model(&users).
		Order("u.id ASC")
	if opts.Role != nil {
		q = q.Where("u.role = ?", *opts.Role)
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
	return users, total, nil
}

type UpdateUserOptions struct {
	Columns []string
}

func (s *Service) UpdateUser(ctx context.Context, user *models.User, opts UpdateUserOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	user.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := s.db.NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errcodes.Conflict("That email is already in use.")
		}
		return errors.WithStack(err)
	}
	return nil
}

// SetRole promotes or demotes a user.
func (s *Service) SetRole(ctx context.Context, user *models.User, role string) error {
	if role != models.RoleAdmin && role != models.RoleUser {
		return errcodes.ValidationError("Role must be admin or user.")
	}
	user.Role = role
	return s.UpdateUser(ctx, user, UpdateUserOptions{Columns: []string{"role"}})
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if !auth.CheckPassword(current, user.PasswordHash) {
		return errcodes.ValidationError("Current password is incorrect.")
	}
	hashed, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	return s.UpdateUser(ctx, user, UpdateUserOptions{Columns: []string{"password_hash"}})
}

// Deactivate keeps the user's rows but stops them from signing in.
func (s *Service) Deactivate(ctx context.Context, user *models.User) error {
	user.IsActive = false
	return s.UpdateUser(ctx, user, UpdateUserOptions{Columns: []string{"is_active"}})
}
