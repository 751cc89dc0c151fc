package reading

import "github.com/taleweave/taleweave/pkg/models"

type ChoosePayload struct {
	ChoiceID int `json:"choice_id" validate:"required,min=1"`
}

type CompletePayload struct {
	ComprehensionResponse *string `json:"comprehension_response" mod:"trim" validate:"omitnil,max=5000"`
}

type RecordPathPayload struct {
	StoryPath             models.PathEntries `json:"story_path" validate:"required,min=1,max=1000"`
	ComprehensionResponse *string            `json:"comprehension_response" mod:"trim" validate:"omitnil,max=5000"`
}

type PathResponse struct {
	*models.UserStoryPath
	DisplayPath models.PathEntries `json:"display_path"`
}
