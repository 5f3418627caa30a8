package auth

import (
	"github.com/hopefultail/hopeful-tail-backend/internal/users"
)

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Username    string  `json:"username" validate:"required,min=3,max=50"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	Address     *string `json:"address,omitempty"`
	PhoneNumber string  `json:"phoneNumber" validate:"required"`
}

// LoginRequest accepts either an email or a username as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// TokenResponse contains the tokens and user produced by login or refresh.
type TokenResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *users.UserDTO `json:"user,omitempty"`
}
