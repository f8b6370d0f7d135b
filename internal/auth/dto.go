package auth

import (
	"github.com/smartpos/smartpos-backend/internal/businesses"
	"github.com/smartpos/smartpos-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the expired access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RegisterRequest opens a new business with its first admin.
type RegisterRequest struct {
	BusinessName string  `json:"business_name" validate:"required"`
	Username     string  `json:"username" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        *string `json:"phone,omitempty"`
	Password     string  `json:"password" validate:"required,min=6"`
}

// SuperadminRequest creates the platform operator account.
type SuperadminRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// TokenResponse is returned by login, refresh and register.
type TokenResponse struct {
	AccessToken  string                  `json:"access_token"`
	RefreshToken string                  `json:"refresh_token"`
	User         *users.UserDTO          `json:"user"`
	Business     *businesses.BusinessDTO `json:"business,omitempty"`
}

// Registration is the result of opening a business.
type Registration struct {
	Business *businesses.BusinessDTO `json:"business"`
	User     *users.UserDTO          `json:"user"`
}
