// Package audit records changes made to stories. The log is append only: the
// application never updates or deletes entries, although deleting a story
// removes its entries through the foreign key cascade.
package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/taleweave/taleweave/pkg/models"
	"github.com/uptrace/bun"
)

// Append inserts entries with db, which may be a transaction.
func Append(ctx context.Context, db bun.IDB, entries ...*models.StoryAuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now()
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
	}
	_, err := db.NewInsert().Model(&entries).Exec(ctx)
	return errors.WithStack(err)
}

// Action is an entry for something that happened to the story as a whole.
func Action(storyID, performedBy int, action string) *models.StoryAuditLog {
	return &models.StoryAuditLog{
		StoryID:     storyID,
		Action:      action,
		PerformedBy: performedBy,
	}
}

// Change is an update entry for a single field.
func Change(storyID, performedBy int, field string, oldValue, newValue *string) *models.StoryAuditLog {
	return &models.StoryAuditLog{
		StoryID:      storyID,
		Action:       models.AuditActionUpdate,
		FieldChanged: &field,
		OldValue:     oldValue,
		NewValue:     newValue,
		PerformedBy:  performedBy,
	}
}

// Value renders a column value for the old_value and new_value columns. Nil
// pointers stay nil.
func Value(v interface{}) *string {
	var s string
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	case bool:
		s = strconv.FormatBool(v)
	case int:
		s = strconv.Itoa(v)
	case *int:
		if v == nil {
			return nil
		}
		s = strconv.Itoa(*v)
	default:
		panic("audit: unsupported value type")
	}
	return &s
}
