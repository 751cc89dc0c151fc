package audit

import (
	"context"
	"testing"
	"time"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taleweave/taleweave/internal/testgen"
	"github.com/taleweave/taleweave/pkg/models"
)

func TestValue(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Value(nil))
	assert.Nil(t, Value((*string)(nil)))
	assert.Nil(t, Value((*int)(nil)))
	assert.Equal(t, "hi", *Value("hi"))
	assert.Equal(t, "hi", *Value(pointerutil.String("hi")))
	assert.Equal(t, "true", *Value(true))
	assert.Equal(t, "12", *Value(12))
	assert.Equal(t, "3", *Value(pointerutil.Int(3)))
	assert.Panics(t, func() { Value(1.5) })
}

func TestAppendAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	author := testgen.CreateUser(t, db, "author", models.RoleUser)
	g := testgen.CreateStory(t, db, author, testgen.ForkStory(false))
	storyID := g.Story.ID
	partID := g.Parts[0].ID

	base := time.Now().Add(-time.Minute)
	first := Action(storyID, author.ID, models.AuditActionCreate)
	first.CreatedAt = base
	second := Change(storyID, author.ID, "title", pointerutil.String("a"), pointerutil.String("b"))
	second.CreatedAt = base.Add(time.Second)
	third := Change(storyID, author.ID, "content", nil, pointerutil.String("new"))
	third.PartID = &partID
	require.NoError(t, Append(ctx, db, first, second, third))
	require.NoError(t, Append(ctx, db))

	svc := NewService(db)

	entries, total, err := svc.List(ctx, ListOptions{StoryID: storyID})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, entries, 3)
	assert.Equal(t, third.ID, entries[0].ID, "newest first")
	assert.Equal(t, first.ID, entries[2].ID)
	assert.Equal(t, models.AuditActionUpdate, entries[1].Action)
	assert.Equal(t, "title", *entries[1].FieldChanged)
	assert.Equal(t, "a", *entries[1].OldValue)
	assert.Equal(t, "b", *entries[1].NewValue)

	entries, total, err = svc.List(ctx, ListOptions{StoryID: storyID, PartID: &partID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Nil(t, entries[0].OldValue)

	entries, total, err = svc.List(ctx, ListOptions{StoryID: storyID, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, entries, 1)
	assert.Equal(t, second.ID, entries[0].ID)
}

func TestCascadeOnStoryDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testgen.NewDB(t)
	author := testgen.CreateUser(t, db, "author", models.RoleUser)
	g := testgen.CreateStory(t, db, author, testgen.StoryOptions{})

	require.NoError(t, Append(ctx, db, Action(g.Story.ID, author.ID, models.AuditActionCreate)))

	_, err := db.NewDelete().Model(g.Story).WherePK().Exec(ctx)
	require.NoError(t, err)

	count, err := db.NewSelect().Model((*models.StoryAuditLog)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
