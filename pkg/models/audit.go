package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	AuditActionCreate  = "create"
	AuditActionUpdate  = "update"
	AuditActionDelete  = "delete"
	AuditActionSubmit  = "submit"
	AuditActionPublish = "publish"
	AuditActionReject  = "reject"
)

// StoryAuditLog rows are only ever inserted.
type StoryAuditLog struct {
	bun.BaseModel `bun:"table:story_audit_log,alias:sal"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	StoryID      int       `bun:",nullzero" json:"story_id"`
	PartID       *int      `json:"part_id"`
	ChoiceID     *int      `json:"choice_id"`
	Action       string    `bun:",nullzero" json:"action"`
	FieldChanged *string   `json:"field_changed"`
	OldValue     *string   `json:"old_value"`
	NewValue     *string   `json:"new_value"`
	PerformedBy  int       `bun:",nullzero" json:"performed_by"`
}
