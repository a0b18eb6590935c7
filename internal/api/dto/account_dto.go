package dto

import (
	"time"

	"github.com/spec-kit/eco-exchange/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountResponse describes an account.
type AccountResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	Reputation float64     `json:"reputation"`
	PhotoURL   string      `json:"photo_url,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewAccountResponse maps the domain account.
func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:         account.ID,
		Name:       account.Name,
		Email:      account.Email,
		Role:       account.Role,
		Reputation: account.Reputation,
		PhotoURL:   account.PhotoURL,
		CreatedAt:  account.CreatedAt,
	}
}
