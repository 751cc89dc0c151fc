package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE stories (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				description TEXT,
				genre TEXT,
				author_id INTEGER REFERENCES users (id) NOT NULL,
				is_published BOOLEAN NOT NULL DEFAULT FALSE,
				submitted_at TIMESTAMPTZ,
				reviewed_at TIMESTAMPTZ,
				reviewed_by INTEGER REFERENCES users (id)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_stories_author_id ON stories (author_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_stories_is_published ON stories (is_published)`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Only one start part per story is allowed, but that rule lives in the
		// stories service. There is deliberately no partial unique index here.
		_, err = db.Exec(`
			CREATE TABLE story_parts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				story_id INTEGER REFERENCES stories (id) NOT NULL,
				content TEXT NOT NULL,
				is_start BOOLEAN NOT NULL DEFAULT FALSE,
				is_ending BOOLEAN NOT NULL DEFAULT FALSE,
				created_by INTEGER REFERENCES users (id) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				modified_by INTEGER REFERENCES users (id),
				modified_at TIMESTAMPTZ
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_story_parts_story_id ON story_parts (story_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`
			CREATE TABLE story_choices (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				part_id INTEGER REFERENCES story_parts (id) NOT NULL,
				choice_text TEXT NOT NULL,
				next_part_id INTEGER REFERENCES story_parts (id) ON DELETE SET NULL,
				order_index INTEGER NOT NULL DEFAULT 0
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_story_choices_part_id ON story_choices (part_id, order_index)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_story_choices_next_part_id ON story_choices (next_part_id)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"story_choices", "story_parts", "stories"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
