package auth

import (
	"time"

	"github.com/medibill/pos-backend/internal/users"
)

// LoginRequest captures the credentials typed at the terminal sign-in screen.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the access token and the signed-in user with the
// screens their role may open.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        *users.UserDTO `json:"user"`
}
