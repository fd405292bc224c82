// Auth session types and errors.
package types

import (
	"context"
	"errors"
	"time"
)

// Session is an authenticated account. Presentation code uses only Email,
// DisplayName and whether a session exists.
type Session struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// SignUpResult reports an account waiting for email verification.
type SignUpResult struct {
	Email               string `json:"email"`
	PendingVerification bool   `json:"pendingVerification"`
}

// AuthProvider wraps the account primitives. It owns the token lifecycle.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password, displayName string) (SignUpResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (Session, bool)
}

// Authentication errors.
var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrNoSession          = errors.New("not signed in")
)
