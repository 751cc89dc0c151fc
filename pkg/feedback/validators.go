package feedback

type RatePayload struct {
	Rating int `json:"rating"`
}

type ReactPayload struct {
	ReactionType string `json:"reaction_type" mod:"trim,lcase" validate:"required,oneof=like dislike"`
}
