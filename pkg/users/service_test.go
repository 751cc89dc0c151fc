package users

import (
	"context"
	"testing"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taleweave/taleweave/internal/testgen"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

func TestService_RetrieveUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	svc := NewService(db)
	created := testgen.CreateUser(t, db, "Reader", models.RoleUser)

	user, err := svc.RetrieveUser(ctx, RetrieveUserOptions{ID: &created.ID})
	require.NoError(t, err)
	assert.Equal(t, "Reader", user.Username)

	user, err = svc.RetrieveUser(ctx, RetrieveUserOptions{Username: pointerutil.String("reader")})
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.RetrieveUser(ctx, RetrieveUserOptions{ID: pointerutil.Int(999)})
	assert.ErrorIs(t, err, errcodes.NotFound("User"))
}

func TestService_ListUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	svc := NewService(db)
	testgen.CreateUser(t, db, "admin", models.RoleAdmin)
	testgen.CreateUser(t, db, "alice", models.RoleUser)
	testgen.CreateUser(t, db, "bob", models.RoleUser)

	users, total, err := svc.ListUsers(ctx, ListUsersOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)

	users, total, err = svc.ListUsers(ctx, ListUsersOptions{Role: pointerutil.String(models.RoleUser)})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, users, 2)
}

func TestService_SetRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	svc := NewService(db)
	user := testgen.CreateUser(t, db, "reader", models.RoleUser)

	require.NoError(t, svc.SetRole(ctx, user, models.RoleAdmin))
	reloaded, err := svc.RetrieveUser(ctx, RetrieveUserOptions{ID: &user.ID})
	require.NoError(t, err)
	assert.True(t, reloaded.IsAdmin())

	err = svc.SetRole(ctx, user, "superuser")
	assert.ErrorIs(t, err, errcodes.ValidationError("Role must be admin or user."))
}

func TestService_ChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	svc := NewService(db)
	user := testgen.CreateUser(t, db, "reader", models.RoleUser)

	err := svc.ChangePassword(ctx, user, "not it", "brand new password")
	assert.ErrorIs(t, err, errcodes.ValidationError("Current password is incorrect."))

	require.NoError(t, svc.ChangePassword(ctx, user, testgen.Password, "brand new password"))
	reloaded, err := svc.RetrieveUser(ctx, RetrieveUserOptions{ID: &user.ID})
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("brand new password", reloaded.PasswordHash))
}

func TestService_UpdateUser_EmailConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	svc := NewService(db)
	first := testgen.CreateUser(t, db, "first", models.RoleUser)
	second := testgen.CreateUser(t, db, "second", models.RoleUser)

	first.Email = pointerutil.String("shared@example.com")
	require.NoError(t, svc.UpdateUser(ctx, first, UpdateUserOptions{Columns: []string{"email"}}))

	second.Email = pointerutil.String("SHARED@example.com")
	err := svc.UpdateUser(ctx, second, UpdateUserOptions{Columns: []string{"email"}})
	assert.ErrorIs(t, err, errcodes.Conflict("That email is already in use."))
}
