package auth

type RegisterPayload struct {
	Username    string  `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Email       *string `json:"email" mod:"trim" validate:"omitnil,email"`
	DisplayName *string `json:"display_name" mod:"trim" validate:"omitnil,notblank,max=100"`
	Password    string  `json:"password" validate:"required,min=8,max=72"`
}

type LoginPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required"`
}

type SessionResponse struct {
	User  *MeResponse `json:"user"`
	Token string      `json:"token"`
}

type MeResponse struct {
	ID          int     `json:"id"`
	Username    string  `json:"username"`
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Role        string  `json:"role"`
}
