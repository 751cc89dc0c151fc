package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	AuthorID  int       `bun:",nullzero" json:"author_id"`
	Author    *User     `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Content   string    `json:"content"`
}

func (p *Post) IsAuthor(u *User) bool {
	return u != nil && p.AuthorID == u.ID
}

// CanDelete reports whether u may remove the post. Only the author may edit
// it, but admins can take it down.
func (p *Post) CanDelete(u *User) bool {
	return p.IsAuthor(u) || u.IsAdmin()
}
