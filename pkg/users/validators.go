package users

import (
	"github.com/taleweave/taleweave/pkg/models"
)

type ListUsersQuery struct {
	Limit  int     `query:"limit" json:"limit" default:"50" validate:"min=1,max=200"`
	Offset int     `query:"offset" json:"offset" validate:"min=0"`
	Role   *string `query:"role" json:"role" validate:"omitnil,oneof=admin user"`
}

type UpdateMePayload struct {
	Email       *string `json:"email" mod:"trim" validate:"omitnil,email"`
	DisplayName *string `json:"display_name" mod:"trim" validate:"omitnil,notblank,max=100"`
}

type ChangePasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// Profile is what other users can see about a user.
type Profile struct {
	ID          int     `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"display_name,omitempty"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
}

func newProfile(u *models.User) *Profile {
	return &Profile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Name:        u.Name(),
		Role:        u.Role,
	}
}
