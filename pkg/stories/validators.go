package stories

type ListStoriesQuery struct {
	Limit    int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset   int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	AuthorID *int    `query:"author_id" json:"author_id,omitempty" validate:"omitnil,min=1"`
	Genre    *string `query:"genre" json:"genre,omitempty"`
	State    *string `query:"state" json:"state,omitempty" validate:"omitnil,oneof=draft under_review published rejected"`
}

type CreateStoryPayload struct {
	Title       string  `json:"title" mod:"trim" validate:"required,max=200"`
	Description *string `json:"description" mod:"trim" validate:"omitnil,max=2000"`
	Genre       *string `json:"genre" mod:"trim" validate:"omitnil,max=50"`
}

type UpdateStoryPayload struct {
	Title       *string `json:"title" mod:"trim" validate:"omitnil,notblank,max=200"`
	Description *string `json:"description" mod:"trim" validate:"omitnil,max=2000"`
	Genre       *string `json:"genre" mod:"trim" validate:"omitnil,max=50"`
	IsPublished *bool   `json:"is_published"`
}

type CreatePartPayload struct {
	Content  string `json:"content" mod:"trim" validate:"required,max=10000"`
	IsStart  bool   `json:"is_start"`
	IsEnding bool   `json:"is_ending"`
}

type UpdatePartPayload struct {
	Content  *string `json:"content" mod:"trim" validate:"omitnil,notblank,max=10000"`
	IsStart  *bool   `json:"is_start"`
	IsEnding *bool   `json:"is_ending"`
}

type CreateChoicePayload struct {
	ChoiceText string `json:"choice_text" mod:"trim" validate:"required,max=500"`
	NextPartID *int   `json:"next_part_id" validate:"omitnil,min=1"`
	OrderIndex *int   `json:"order_index" validate:"omitnil,min=0"`
}

type UpdateChoicePayload struct {
	ChoiceText    *string `json:"choice_text" mod:"trim" validate:"omitnil,notblank,max=500"`
	NextPartID    *int    `json:"next_part_id" validate:"omitnil,min=1"`
	ClearNextPart bool    `json:"clear_next_part"`
	OrderIndex    *int    `json:"order_index" validate:"omitnil,min=0"`
}

type ListAuditQuery struct {
	Limit  int  `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	PartID *int `query:"part_id" json:"part_id,omitempty" validate:"omitnil,min=1"`
}
