// Package identity wraps the external authentication provider holding
// account credentials. The directory store keeps the profile; this package
// keeps the login material, joined by the same id.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = errors.New("identity: email already registered")
	// ErrNotFound is returned when no identity matches the lookup key.
	ErrNotFound = errors.New("identity: not found")
	// ErrBadCredentials is returned by VerifyPassword on a mismatch.
	ErrBadCredentials = errors.New("identity: invalid credentials")
)

// Identity is an account held by the authentication provider.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Claims is the role/permission bundle attachable to an identity. Only the
// setup flow writes claims; the request path resolves role from the
// directory store instead.
type Claims map[string]any

// Provider abstracts the authentication backend.
type Provider interface {
	Create(ctx context.Context, email, password, displayName string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	GetByID(ctx context.Context, id string) (*Identity, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
	Delete(ctx context.Context, id string) error
	SetClaims(ctx context.Context, id string, claims Claims) error
	VerifyPassword(ctx context.Context, email, password string) (*Identity, error)
}
