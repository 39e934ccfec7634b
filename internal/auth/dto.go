package auth

import (
	"github.com/polybazaar/polybazaar-backend/internal/users"
)

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Name     string  `json:"name" validate:"required"`
	Company  *string `json:"company,omitempty"`
}

// LoginRequest carries the credentials for any login flow.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterResponse returns the freshly created account.
type RegisterResponse struct {
	User *users.UserDTO `json:"user"`
}

// LoginResponse is the result of a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}
