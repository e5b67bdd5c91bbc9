package dto

import (
	"time"

	"github.com/spec-kit/todo-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserDTO is the admin-facing account shape. The password hash never appears
// on the wire.
type UserDTO struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Roles    []domain.Role `json:"roles"`
}

// FromUser maps a domain user to its wire shape.
func FromUser(user *domain.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Roles:    user.Roles,
	}
}
