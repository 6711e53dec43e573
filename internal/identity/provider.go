// Package identity talks to the external identity provider. The client
// speaks the GoTrue REST dialect used by hosted auth services.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials is returned by SignIn for a wrong email or
	// password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoSession means the token is missing, expired or rejected.
	ErrNoSession = errors.New("no valid session")

	// ErrUnavailable covers transport failures and unexpected replies.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Session is the caller's identity state.
type Session struct {
	Valid       bool      `json:"valid"`
	SubjectID   string    `json:"subject_id,omitempty"`
	Email       string    `json:"email,omitempty"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// Provider is the identity contract consumed by the session guard and the
// auth handlers. Nothing else depends on it.
type Provider interface {
	GetSession(ctx context.Context, token string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
}
