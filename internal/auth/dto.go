package auth

import (
	"github.com/piyawat/agencydesk-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterRequest contains the payload required to create a back-office account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse contains the user and access token produced by a successful
// login. The refresh token travels only in the cookie, never the body.
type LoginResponse struct {
	User        *users.UserDTO `json:"user"`
	AccessToken string         `json:"accessToken"`

	RefreshToken string `json:"-"`
}

// RefreshResponse carries the re-minted access token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}
