package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vasapolrittideah/clinidoc-api/services/auth-service/internal/model"
)

var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("incorrect email or password")
	ErrAccountInactive       = errors.New("user account is inactive")
	ErrUnauthenticated       = errors.New("could not validate credentials")
	ErrTokenRevoked          = errors.New("refresh token has been revoked")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidOAuthAssertion = errors.New("invalid oauth token: missing required fields")
	ErrUserNotFound          = errors.New("user not found")
)

// RoleError is returned by the role gate. It carries the roles that would
// have been accepted and matches ErrForbidden with errors.Is.
type RoleError struct {
	Role    model.Role
	Allowed []model.Role
}

func (e *RoleError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, r := range e.Allowed {
		allowed[i] = string(r)
	}
	return fmt.Sprintf("role %q is not permitted, requires one of: %s", e.Role, strings.Join(allowed, ", "))
}

func (e *RoleError) Unwrap() error {
	return ErrForbidden
}
