// Package auth defines the backend-agnostic identity model, the credential
// backend contract and the authentication error taxonomy shared by the local
// and hosted backends.
package auth

import (
	"context"
	"strings"
)

// Role is the privilege level of an Identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a backend role string to a Role. Empty or unknown values
// fall back to RoleUser.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Identity is a resolved user record. ID is assigned by the backend and never
// changes; Email and DisplayName may be empty.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	Role        Role   `json:"role"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name returns the display name, falling back to the email, then "".
func (i *Identity) Name() string {
	if i == nil {
		return ""
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Clone returns an independent copy, or nil for nil.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Backend is the credential backend capability set. Implementations produce
// Identities but keep no reference to them after returning.
//
// CurrentUser returns (nil, nil) when there is no active session.
// SignOut must succeed when no session exists.
type Backend interface {
	SignUp(ctx context.Context, email, password, displayName string, role Role) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	CurrentUser(ctx context.Context) (*Identity, error)

	// AutoSignIn reports whether a successful SignUp leaves an active
	// session behind.
	AutoSignIn() bool
}
