package model

import (
	"errors"
	"time"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleClinician  Role = "clinician"
	RoleSupervisor Role = "supervisor"
	RoleViewer     Role = "viewer"
)

// DefaultOAuthRole is assigned to users created on their first OAuth login.
const DefaultOAuthRole = RoleClinician

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClinician, RoleSupervisor, RoleViewer:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidRole       = errors.New("invalid role")
	ErrMissingCredential = errors.New("user must have a password or an oauth subject")
)

// User represents a user in the authentication system.
type User struct {
	ID            string     `bson:"_id"`
	Email         string     `bson:"email"`
	PasswordHash  string     `bson:"password_hash,omitempty"`
	FullName      string     `bson:"full_name"`
	Role          Role       `bson:"role"`
	IsActive      bool       `bson:"is_active"`
	IsVerified    bool       `bson:"is_verified"`
	OAuthProvider string     `bson:"oauth_provider,omitempty"`
	OAuthSubject  string     `bson:"oauth_subject,omitempty"`
	LastLogin     *time.Time `bson:"last_login,omitempty"`
	TokenVersion  string     `bson:"token_version"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

// Validate checks the record level invariants enforced before every write.
func (u *User) Validate() error {
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	if u.PasswordHash == "" && u.OAuthSubject == "" {
		return ErrMissingCredential
	}

	return nil
}

// Role sets used by the access guard role gates.
var (
	AdminRoles      = []Role{RoleAdmin}
	ClinicalRoles   = []Role{RoleAdmin, RoleClinician, RoleSupervisor}
	SupervisorRoles = []Role{RoleAdmin, RoleSupervisor}
)

// HasPassword reports whether the user can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
