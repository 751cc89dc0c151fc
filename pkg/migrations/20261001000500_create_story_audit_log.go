package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		// part_id and choice_id are intentionally not foreign keys so that the
		// history of a deleted part or choice is kept.
		_, err := db.Exec(`
			CREATE TABLE story_audit_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				story_id INTEGER REFERENCES stories (id) ON DELETE CASCADE NOT NULL,
				part_id INTEGER,
				choice_id INTEGER,
				action TEXT NOT NULL,
				field_changed TEXT,
				old_value TEXT,
				new_value TEXT,
				performed_by INTEGER REFERENCES users (id) NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_story_audit_log_story_id ON story_audit_log (story_id, created_at)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("DROP TABLE IF EXISTS story_audit_log")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
