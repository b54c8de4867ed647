// Package hosted implements the credential backend backed by a hosted
// identity provider speaking the Supabase GoTrue REST protocol.
//
// The provider session (access token, refresh token, expiry and user) is
// kept in the local metadata store under "hosted_session" so a restarted
// client resumes it. Provider failures are mapped onto the auth error
// taxonomy by Classify, and nowhere else.
package hosted

import (
	"context"
	"fmt"
	"time"
)

// UserMetadata is the free-form profile GoTrue stores per user. Only the
// fields the catalogue reads are modelled.
type UserMetadata struct {
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

type ProviderUser struct {
	ID               string       `json:"id"`
	Email            string       `json:"email,omitempty"`
	Metadata         UserMetadata `json:"user_metadata"`
	EmailConfirmedAt *time.Time   `json:"email_confirmed_at,omitempty"`
}

type ProviderSession struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         *ProviderUser `json:"user,omitempty"`
}

// Provider is the upstream identity service.
//
// SignUp may return a user without a session when the provider requires
// email confirmation before the first sign-in.
type Provider interface {
	SignUp(ctx context.Context, email, password string, meta UserMetadata) (*ProviderUser, *ProviderSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*ProviderSession, error)
	Refresh(ctx context.Context, refreshToken string) (*ProviderSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*ProviderUser, error)
}

// ProviderError is a non-2xx provider response.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("identity provider: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("identity provider: status %d (%s): %s", e.Status, e.Code, e.Message)
}
