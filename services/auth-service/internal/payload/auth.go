package payload

import (
	"time"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
	authtypes "github.com/vasapolrittideah/clinidoc-api/services/auth-service/pkg/types"
)

type RegisterRequest struct {
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required,min=8,max=100"`
	FullName string `json:"full_name" validate:"required,min=1,max=255"`
	Role     string `json:"role"      validate:"omitempty,oneof=admin clinician supervisor viewer"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// OAuthLoginRequest carries a provider issued token. An empty provider
// selects the configured default.
type OAuthLoginRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email"     validate:"omitempty,email"`
	FullName *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	Role     *string `json:"role"      validate:"omitempty,oneof=admin clinician supervisor viewer"`
	IsActive *bool   `json:"is_active"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func NewUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		FullName:   user.FullName,
		Role:       string(user.Role),
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
		LastLogin:  user.LastLogin,
		CreatedAt:  user.CreatedAt,
	}
}

type LoginResponse struct {
	User UserResponse `json:"user"`
	authtypes.Tokens
}

type TokenResponse = authtypes.Tokens

type VerifyTokenResponse struct {
	Valid bool         `json:"valid"`
	User  UserResponse `json:"user"`
}

// SessionResponse reports whether the caller presented a valid access token.
type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
