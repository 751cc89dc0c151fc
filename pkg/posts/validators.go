package posts

type ListPostsQuery struct {
	Limit    int  `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset   int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	AuthorID *int `query:"author_id" json:"author_id,omitempty" validate:"omitnil,min=1"`
}

type CreatePostPayload struct {
	Content string `json:"content" mod:"trim" validate:"required,max=2000"`
}

type UpdatePostPayload struct {
	Content string `json:"content" mod:"trim" validate:"required,max=2000"`
}
