/*
Package user contains the user projections and the account store.

A Profile is the secret-free view of an account that may be returned to
clients (sidebar entries, group member listings, directory reads). The
Account struct additionally carries the password hash and is only handed
to the authentication handlers.
*/
package user

import (
	"context"
	"errors"
)

// Account roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Profile is the public projection of a user account. It never carries
// credential material.
type Profile struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilePic,omitempty"`
	Role       string `json:"role"`
}

// Account is the internal view of a user, including the bcrypt password hash.
type Account struct {
	Profile
	PasswordHash string
}

// Store defines the persistence operations for user accounts.
type Store interface {
	// Create inserts a new account and returns its public profile.
	// Returns ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, fullName, email, passwordHash, role string) (Profile, error)

	// GetAccountByEmail fetches the full account (hash included) for login.
	// Returns ErrNotFound when no account matches.
	GetAccountByEmail(ctx context.Context, email string) (Account, error)

	// GetByID fetches the public profile of an account.
	// Returns ErrNotFound when no account matches.
	GetByID(ctx context.Context, id string) (Profile, error)

	// ListByRole returns all profiles with the given role, secrets excluded.
	ListByRole(ctx context.Context, role string) ([]Profile, error)

	// UpdateProfilePic replaces the account's profile picture URL and returns
	// the refreshed profile. Returns ErrNotFound when no account matches.
	UpdateProfilePic(ctx context.Context, id, url string) (Profile, error)
}
