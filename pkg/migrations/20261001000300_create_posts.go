package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		statements := []string{
			`CREATE TABLE posts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				author_id INTEGER REFERENCES users (id) NOT NULL,
				content TEXT NOT NULL
			)`,
			`CREATE INDEX ix_posts_author_id ON posts (author_id)`,
			`CREATE INDEX ix_posts_created_at ON posts (created_at)`,
			`CREATE TABLE post_ratings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				post_id INTEGER REFERENCES posts (id) ON DELETE CASCADE NOT NULL,
				rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5)
			)`,
			`CREATE UNIQUE INDEX ux_post_ratings_user_id_post_id ON post_ratings (user_id, post_id)`,
			`CREATE TABLE post_reactions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				post_id INTEGER REFERENCES posts (id) ON DELETE CASCADE NOT NULL,
				reaction_type TEXT NOT NULL CHECK (reaction_type IN ('like', 'dislike'))
			)`,
			`CREATE UNIQUE INDEX ux_post_reactions_user_id_post_id ON post_reactions (user_id, post_id)`,
		}
		for _, stmt := range statements {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"post_reactions", "post_ratings", "posts"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
