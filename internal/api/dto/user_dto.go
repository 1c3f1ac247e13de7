package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// SignupRequest payload for new users.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the auth success body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserResponse is the outward user view. The password hash is never
// part of any response shape.
type UserResponse struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	SupportCategory *string    `json:"supportCategory,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// CreateUserRequest is the admin user-creation payload.
type CreateUserRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	SupportCategory string `json:"supportCategory"`
}

// UpdateUserRequest is the admin user-update payload.
type UpdateUserRequest struct {
	Email           *string `json:"email"`
	Role            *string `json:"role"`
	SupportCategory *string `json:"supportCategory"`
}

// NewUserResponse shapes a user view without timestamps.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		Role:            string(user.Role),
		SupportCategory: categoryString(user.SupportCategory),
	}
}

// NewUserResponseFull shapes a user view including timestamps, used by
// the admin listing.
func NewUserResponseFull(user *domain.User) UserResponse {
	resp := NewUserResponse(user)
	created := user.CreatedAt
	updated := user.UpdatedAt
	resp.CreatedAt = &created
	resp.UpdatedAt = &updated
	return resp
}

func categoryString(c *domain.SupportCategory) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}
