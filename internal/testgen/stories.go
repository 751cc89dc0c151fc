package testgen

import (
	"context"
	"testing"
	"time"

	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

// PartOptions describes one part of a generated story. Parts are referenced
// by their index in StoryOptions.Parts.
type PartOptions struct {
	Content  string
	IsStart  bool
	IsEnding bool
	Choices  []ChoiceOptions
}

// ChoiceOptions describes a choice. Next is the index of the target part, or
// -1 for a terminal choice.
type ChoiceOptions struct {
	Text string
	Next int
}

type StoryOptions struct {
	Title     string
	Published bool
	Parts     []PartOptions
}

// Graph is a generated story with its rows in the order they were declared.
type Graph struct {
	Story   *models.Story
	Parts   []*models.StoryPart
	Choices [][]*models.StoryChoice
}

// CreateStory inserts a story and its graph, bypassing the stories service.
func CreateStory(t *testing.T, db *bun.DB, author *models.User, opts StoryOptions) *Graph {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	title := opts.Title
	if title == "" {
		title = "Generated Story"
	}
	story := &models.Story{
		CreatedAt:   now,
		UpdatedAt:   now,
		Title:       title,
		AuthorID:    author.ID,
		IsPublished: opts.Published,
	}
	if _, err := db.NewInsert().Model(story).Exec(ctx); err != nil {
		t.Fatalf("failed to create story: %v", err)
	}

	g := &Graph{Story: story}
	for _, po := range opts.Parts {
		part := &models.StoryPart{
			StoryID:   story.ID,
			Content:   po.Content,
			IsStart:   po.IsStart,
			IsEnding:  po.IsEnding,
			CreatedBy: author.ID,
			CreatedAt: now,
		}
		if _, err := db.NewInsert().Model(part).Exec(ctx); err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		g.Parts = append(g.Parts, part)
	}

	for i, po := range opts.Parts {
		var choices []*models.StoryChoice
		for j, co := range po.Choices {
			choice := &models.StoryChoice{
				PartID:     g.Parts[i].ID,
				ChoiceText: co.Text,
				OrderIndex: j,
			}
			if co.Next >= 0 {
				next := g.Parts[co.Next].ID
				choice.NextPartID = &next
			}
			if _, err := db.NewInsert().Model(choice).Exec(ctx); err != nil {
				t.Fatalf("failed to create choice: %v", err)
			}
			choices = append(choices, choice)
		}
		g.Choices = append(g.Choices, choices)
	}

	return g
}

// ForkStory is a small story used across packages:
//
//	0 (start) --"go north"--> 1 (ending)
//	          --"go south"--> 2 --"loop back"--> 0
//	                            --"give up"--> end
func ForkStory(published bool) StoryOptions {
	return StoryOptions{
		Title:     "The Fork",
		Published: published,
		Parts: []PartOptions{
			{Content: "You stand at a fork.", IsStart: true, Choices: []ChoiceOptions{
				{Text: "go north", Next: 1},
				{Text: "go south", Next: 2},
			}},
			{Content: "You found the castle.", IsEnding: true},
			{Content: "A swamp.", Choices: []ChoiceOptions{
				{Text: "loop back", Next: 0},
				{Text: "give up", Next: -1},
			}},
		},
	}
}
