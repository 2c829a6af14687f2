package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNoUpdate     = errors.New("no user fields to update")
)

// UserRepository defines the interface for user-related storage operations.
// Every call is atomic on its own; CreateUser and UpdateUser fail with
// ErrDuplicateKey instead of writing a second user with the same email or
// oauth subject.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByOAuthSubject(ctx context.Context, subject string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	Email         *string
	PasswordHash  *string
	FullName      *string
	Role          *model.Role
	IsActive      *bool
	IsVerified    *bool
	OAuthProvider *string
	OAuthSubject  *string
	LastLogin     *time.Time
	TokenVersion  *string
}

func (p UpdateUserParams) empty() bool {
	return p.Email == nil && p.PasswordHash == nil && p.FullName == nil && p.Role == nil &&
		p.IsActive == nil && p.IsVerified == nil && p.OAuthProvider == nil && p.OAuthSubject == nil &&
		p.LastLogin == nil && p.TokenVersion == nil
}

// apply copies the set fields onto user.
func (p UpdateUserParams) apply(user *model.User) {
	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.PasswordHash != nil {
		user.PasswordHash = *p.PasswordHash
	}
	if p.FullName != nil {
		user.FullName = *p.FullName
	}
	if p.Role != nil {
		user.Role = *p.Role
	}
	if p.IsActive != nil {
		user.IsActive = *p.IsActive
	}
	if p.IsVerified != nil {
		user.IsVerified = *p.IsVerified
	}
	if p.OAuthProvider != nil {
		user.OAuthProvider = *p.OAuthProvider
	}
	if p.OAuthSubject != nil {
		user.OAuthSubject = *p.OAuthSubject
	}
	if p.LastLogin != nil {
		t := *p.LastLogin
		user.LastLogin = &t
	}
	if p.TokenVersion != nil {
		user.TokenVersion = *p.TokenVersion
	}
}
