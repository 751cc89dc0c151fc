package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE user_story_paths (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				story_id INTEGER REFERENCES stories (id) ON DELETE CASCADE NOT NULL,
				story_path TEXT NOT NULL DEFAULT '[]',
				comprehension_response TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_user_story_paths_user_id_story_id ON user_story_paths (user_id, story_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`
			CREATE TABLE story_progress (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				story_id INTEGER REFERENCES stories (id) ON DELETE CASCADE NOT NULL,
				completed BOOLEAN NOT NULL DEFAULT FALSE,
				current_part_id INTEGER REFERENCES story_parts (id) ON DELETE SET NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_story_progress_user_id_story_id ON story_progress (user_id, story_id)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("DROP TABLE IF EXISTS story_progress")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS user_story_paths")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
