package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Moderation states. They are derived from the review columns of a story and
// are never stored.
const (
	StoryStateDraft       = "draft"
	StoryStateUnderReview = "under_review"
	StoryStatePublished   = "published"
	StoryStateRejected    = "rejected"
)

type Story struct {
	bun.BaseModel `bun:"table:stories,alias:s"`

	ID          int        `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Title       string     `bun:",nullzero" json:"title"`
	Description *string    `json:"description"`
	Genre       *string    `json:"genre"`
	AuthorID    int        `bun:",nullzero" json:"author_id"`
	Author      *User      `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	IsPublished bool       `json:"is_published"`
	SubmittedAt *time.Time `json:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at"`
	ReviewedBy  *int       `json:"reviewed_by"`
	State       string     `bun:"-" json:"state"`

	Parts []*StoryPart `bun:"rel:has-many,join:id=story_id" json:"parts,omitempty"`
}

// ModerationState infers where the story is in the review flow. A story is
// rejected when it was reviewed at or after its last submission and is not
// published. Because admins can flip is_published without touching the review
// stamps, the result only reflects the columns as they are.
func (s *Story) ModerationState() string {
	switch {
	case s.IsPublished:
		return StoryStatePublished
	case s.ReviewedAt != nil && (s.SubmittedAt == nil || !s.ReviewedAt.Before(*s.SubmittedAt)):
		return StoryStateRejected
	case s.SubmittedAt != nil:
		return StoryStateUnderReview
	default:
		return StoryStateDraft
	}
}

func (s *Story) IsAuthor(u *User) bool {
	return u != nil && s.AuthorID == u.ID
}

// CanRead reports whether u may open the story. Unpublished stories are only
// visible to their author and to admins.
func (s *Story) CanRead(u *User) bool {
	return s.IsPublished || s.IsAuthor(u) || u.IsAdmin()
}

// CanEdit reports whether u may change the story graph or its metadata.
func (s *Story) CanEdit(u *User) bool {
	return s.IsAuthor(u) || u.IsAdmin()
}

type StoryPart struct {
	bun.BaseModel `bun:"table:story_parts,alias:sp"`

	ID         int        `bun:",pk,nullzero" json:"id"`
	StoryID    int        `bun:",nullzero" json:"story_id"`
	Content    string     `json:"content"`
	IsStart    bool       `json:"is_start"`
	IsEnding   bool       `json:"is_ending"`
	CreatedBy  int        `bun:",nullzero" json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedBy *int       `json:"modified_by"`
	ModifiedAt *time.Time `json:"modified_at"`

	Choices []*StoryChoice `bun:"rel:has-many,join:id=part_id" json:"choices,omitempty"`
}

type StoryChoice struct {
	bun.BaseModel `bun:"table:story_choices,alias:sc"`

	ID         int    `bun:",pk,nullzero" json:"id"`
	PartID     int    `bun:",nullzero" json:"part_id"`
	ChoiceText string `json:"choice_text"`
	NextPartID *int   `json:"next_part_id"`
	OrderIndex int    `json:"order_index"`
}

// IsTerminal reports whether picking the choice ends the story.
func (c *StoryChoice) IsTerminal() bool {
	return c.NextPartID == nil
}
