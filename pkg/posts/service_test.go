package posts

import (
	"context"
	"testing"
	"time"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taleweave/taleweave/internal/testgen"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/models"
)

func TestCreateAndRetrievePost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	author := testgen.CreateUser(t, db, "author", models.RoleUser)
	svc := NewService(db)

	post, err := svc.CreatePost(ctx, CreatePostOptions{AuthorID: author.ID, Content: "hello board"})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)

	retrieved, err := svc.RetrievePost(ctx, RetrievePostOptions{ID: &post.ID})
	require.NoError(t, err)
	assert.Equal(t, "hello board", retrieved.Content)
	require.NotNil(t, retrieved.Author)
	assert.Equal(t, "author", retrieved.Author.Username)

	_, err = svc.RetrievePost(ctx, RetrievePostOptions{ID: pointerutil.Int(999)})
	assert.ErrorIs(t, err, errcodes.NotFound("Post"))
}

func TestListPosts_NewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	alice := testgen.CreateUser(t, db, "alice", models.RoleUser)
	bob := testgen.CreateUser(t, db, "bob", models.RoleUser)
	svc := NewService(db)

	var ids []int
	for i, u := range []*models.User{alice, bob, alice} {
		post, err := svc.CreatePost(ctx, CreatePostOptions{AuthorID: u.ID, Content: "post"})
		require.NoError(t, err)
		post.CreatedAt = post.CreatedAt.Add(time.Duration(i) * time.Second)
		_, err = db.NewUpdate().Model(post).Column("created_at").WherePK().Exec(ctx)
		require.NoError(t, err)
		ids = append(ids, post.ID)
	}

	posts, total, err := svc.ListPosts(ctx, ListPostsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, posts, 3)
	assert.Equal(t, []int{ids[2], ids[1], ids[0]}, []int{posts[0].ID, posts[1].ID, posts[2].ID})

	posts, total, err = svc.ListPosts(ctx, ListPostsOptions{AuthorID: &alice.ID, Limit: pointerutil.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, posts, 1)
	assert.Equal(t, ids[2], posts[0].ID)
}

func TestUpdatePost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	author := testgen.CreateUser(t, db, "author", models.RoleUser)
	svc := NewService(db)

	post, err := svc.CreatePost(ctx, CreatePostOptions{AuthorID: author.ID, Content: "first"})
	require.NoError(t, err)

	post.Content = "second"
	require.NoError(t, svc.UpdatePost(ctx, post, UpdatePostOptions{Columns: []string{"content"}}))

	retrieved, err := svc.RetrievePost(ctx, RetrievePostOptions{ID: &post.ID})
	require.NoError(t, err)
	assert.Equal(t, "second", retrieved.Content)
}

func TestDeletePost_CascadesFeedback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	author := testgen.CreateUser(t, db, "author", models.RoleUser)
	reader := testgen.CreateUser(t, db, "reader", models.RoleUser)
	svc := NewService(db)

	post, err := svc.CreatePost(ctx, CreatePostOptions{AuthorID: author.ID, Content: "rate me"})
	require.NoError(t, err)

	now := time.Now()
	_, err = db.NewInsert().Model(&models.PostRating{
		CreatedAt: now, UpdatedAt: now, UserID: reader.ID, PostID: post.ID, Rating: 4,
	}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&models.PostReaction{
		CreatedAt: now, UserID: reader.ID, PostID: post.ID, ReactionType: models.ReactionLike,
	}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(ctx, post.ID))

	ratings, err := db.NewSelect().Model((*models.PostRating)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, ratings)
	reactions, err := db.NewSelect().Model((*models.PostReaction)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, reactions)

	assert.ErrorIs(t, svc.DeletePost(ctx, post.ID), errcodes.NotFound("Post"))
}
