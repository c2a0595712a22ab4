// Package accounts defines the account/session store contract.
//
// The store itself is an external collaborator; this package holds the
// client-side contract plus a remote HTTP client and a local in-memory
// implementation for development and tests.
package accounts

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials is returned when the provided credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotSignedIn is returned when no session is active.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrUserExists is returned when registering an already-registered email.
	ErrUserExists = errors.New("user already exists")
)

// Account is the identity exposed to the rest of the service.
type Account struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	IsPremium bool   `json:"is_premium"`
}

// Session is an authenticated session against the account store.
type Session struct {
	Account   Account   `json:"account"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the account/session store contract. Errors beyond the sentinels
// above are opaque; consumers only distinguish success from failure.
type Store interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	Current() (Account, bool)
}
