package models

// Tables that publish change notifications.
const (
	TableStories        = "stories"
	TableStoryParts     = "story_parts"
	TableStoryChoices   = "story_choices"
	TableStoryRatings   = "story_ratings"
	TableStoryReactions = "story_reactions"
	TableStoryAuditLog  = "story_audit_log"
	TablePosts          = "posts"
	TablePostRatings    = "post_ratings"
	TablePostReactions  = "post_reactions"
	TableStoryProgress  = "story_progress"
	TableUserStoryPaths = "user_story_paths"
)

var watchable = map[string]struct{}{
	TableStories:        {},
	TableStoryParts:     {},
	TableStoryChoices:   {},
	TableStoryRatings:   {},
	TableStoryReactions: {},
	TableStoryAuditLog:  {},
	TablePosts:          {},
	TablePostRatings:    {},
	TablePostReactions:  {},
	TableStoryProgress:  {},
	TableUserStoryPaths: {},
}

func IsWatchableTable(name string) bool {
	_, ok := watchable[name]
	return ok
}
