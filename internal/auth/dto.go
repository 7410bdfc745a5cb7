package auth

import "github.com/omarsegovia/pipelinecrm-backend/internal/users"

// LoginRequest carries the credentials posted to /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the signed access token plus the user profile.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// CompleteSetupRequest finishes the invite flow: the temporary credential is
// exchanged for a chosen password.
type CompleteSetupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	TempPassword string `json:"temp_password" validate:"required"`
	NewPassword  string `json:"new_password" validate:"required,min=10"`
}
