package feedback

import (
	"time"

	"github.com/taleweave/taleweave/pkg/models"
)

const (
	TargetStory = "story"
	TargetPost  = "post"
)

// target describes where one kind of feedback is stored. Stories and posts
// keep their ratings and reactions in separate tables with the same shape.
type target struct {
	name      string
	column    string
	ratings   string
	reactions string

	newRating   func(userID, targetID, rating int, now time.Time) interface{}
	newReaction func(userID, targetID int, kind string, now time.Time) interface{}
}

var targets = map[string]*target{
	TargetStory: {
		name:      TargetStory,
		column:    "story_id",
		ratings:   models.TableStoryRatings,
		reactions: models.TableStoryReactions,
		newRating: func(userID, targetID, rating int, now time.Time) interface{} {
			return &models.StoryRating{CreatedAt: now, UpdatedAt: now, UserID: userID, StoryID: targetID, Rating: rating}
		},
		newReaction: func(userID, targetID int, kind string, now time.Time) interface{} {
			return &models.StoryReaction{CreatedAt: now, UserID: userID, StoryID: targetID, ReactionType: kind}
		},
	},
	TargetPost: {
		name:      TargetPost,
		column:    "post_id",
		ratings:   models.TablePostRatings,
		reactions: models.TablePostReactions,
		newRating: func(userID, targetID, rating int, now time.Time) interface{} {
			return &models.PostRating{CreatedAt: now, UpdatedAt: now, UserID: userID, PostID: targetID, Rating: rating}
		},
		newReaction: func(userID, targetID int, kind string, now time.Time) interface{} {
			return &models.PostReaction{CreatedAt: now, UserID: userID, PostID: targetID, ReactionType: kind}
		},
	},
}
