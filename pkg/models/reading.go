package models

import (
	"database/sql/driver"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

// PathEntry is one step of a reading session. ChoiceID and ChoiceText are
// empty for the entry recorded when the reader lands on an ending.
type PathEntry struct {
	PartID      int       `json:"part_id"`
	ChoiceID    *int      `json:"choice_id,omitempty"`
	ChoiceText  *string   `json:"choice_text,omitempty"`
	PartContent *string   `json:"part_content,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// PathEntries is stored as a JSON array in user_story_paths.story_path.
type PathEntries []PathEntry

func (p PathEntries) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]PathEntry(p))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(b), nil
}

// Scan parses a stored path. Rows that don't decode into a list of entries,
// or that contain an entry without a part, are rejected.
func (p *PathEntries) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = PathEntries{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.Errorf("unsupported story_path type %T", src)
	}

	var entries []PathEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return errors.Wrap(err, "malformed story_path")
	}
	for i, e := range entries {
		if e.PartID <= 0 {
			return errors.Errorf("malformed story_path: entry %d has no part_id", i)
		}
	}
	*p = entries
	return nil
}

// Dedupe returns the entries with repeated parts removed, keeping the first
// time each part was visited. It is only meant for display.
func (p PathEntries) Dedupe() PathEntries {
	seen := make(map[int]struct{}, len(p))
	out := make(PathEntries, 0, len(p))
	for _, e := range p {
		if _, ok := seen[e.PartID]; ok {
			continue
		}
		seen[e.PartID] = struct{}{}
		out = append(out, e)
	}
	return out
}

type UserStoryPath struct {
	bun.BaseModel `bun:"table:user_story_paths,alias:usp"`

	ID                    int         `bun:",pk,nullzero" json:"id"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
	UserID                int         `bun:",nullzero" json:"user_id"`
	StoryID               int         `bun:",nullzero" json:"story_id"`
	StoryPath             PathEntries `bun:"story_path,type:text" json:"story_path"`
	ComprehensionResponse *string     `json:"comprehension_response"`
}

type StoryProgress struct {
	bun.BaseModel `bun:"table:story_progress,alias:spr"`

	ID            int       `bun:",pk,nullzero" json:"id"`
	UpdatedAt     time.Time `json:"updated_at"`
	UserID        int       `bun:",nullzero" json:"user_id"`
	StoryID       int       `bun:",nullzero" json:"story_id"`
	Completed     bool      `json:"completed"`
	CurrentPartID *int      `json:"current_part_id"`
}
