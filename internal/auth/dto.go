package auth

import (
	"github.com/civictrack/civictrack-backend/internal/users"
)

// LoginRequest captures the credentials and the portal role being signed into.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
}

// RegisterRequest is the self sign-up payload.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Role     string  `json:"role" validate:"required,role"`
	Phone    *string `json:"phone" validate:"omitnil,max=30"`
	Address  *string `json:"address" validate:"omitnil,max=200"`
}

// Session is the result of a successful login or registration. The refresh
// token travels only in the cookie.
type Session struct {
	AccessToken  string         `json:"token"`
	RefreshToken string         `json:"-"`
	User         *users.UserDTO `json:"user"`
}

// RefreshResult carries the newly minted access token.
type RefreshResult struct {
	AccessToken string `json:"token"`
}
