package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

type StoryRating struct {
	bun.BaseModel `bun:"table:story_ratings,alias:sr"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    int       `bun:",nullzero" json:"user_id"`
	StoryID   int       `bun:",nullzero" json:"story_id"`
	Rating    int       `json:"rating"`
}

type StoryReaction struct {
	bun.BaseModel `bun:"table:story_reactions,alias:sre"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       int       `bun:",nullzero" json:"user_id"`
	StoryID      int       `bun:",nullzero" json:"story_id"`
	ReactionType string    `bun:",nullzero" json:"reaction_type"`
}

type PostRating struct {
	bun.BaseModel `bun:"table:post_ratings,alias:pra"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    int       `bun:",nullzero" json:"user_id"`
	PostID    int       `bun:",nullzero" json:"post_id"`
	Rating    int       `json:"rating"`
}

type PostReaction struct {
	bun.BaseModel `bun:"table:post_reactions,alias:pre"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       int       `bun:",nullzero" json:"user_id"`
	PostID       int       `bun:",nullzero" json:"post_id"`
	ReactionType string    `bun:",nullzero" json:"reaction_type"`
}
