package reading

import (
	"context"

	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

// Graph is a story's parts and choices, loaded once when a session starts.
// Later edits to the story do not affect sessions already running.
type Graph struct {
	StoryID int
	Start   *models.StoryPart
	Parts   map[int]*models.StoryPart
}

// LoadGraph reads every part of a story along with its choices in display
// order.
func LoadGraph(ctx context.Context, db bun.IDB, storyID int) (*Graph, error) {
	var parts []*models.StoryPart
	err := db.NewSelect().
		Model(&parts).
		Relation("Choices", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("sc.order_index ASC", "sc.id ASC")
		}).
		Where("sp.story_id = ?", storyID).
		Order("sp.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	g := &Graph{StoryID: storyID, Parts: make(map[int]*models.StoryPart, len(parts))}
	for _, part := range parts {
		g.Parts[part.ID] = part
		// With more than one start part (possible under concurrent edits),
		// the oldest wins.
		if part.IsStart && g.Start == nil {
			g.Start = part
		}
	}
	return g, nil
}

func (g *Graph) choice(part *models.StoryPart, choiceID int) *models.StoryChoice {
	for _, c := range part.Choices {
		if c.ID == choiceID {
			return c
		}
	}
	return nil
}
