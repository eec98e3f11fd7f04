// Package identity resolves who the current user is.
//
// A Context tracks the signed-in user reported by a Provider and fans every change out to its
// subscribers. Request handlers carry the user in a context.Context instead (see WithUser).
package identity

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned by every user scoped operation called without a resolved identity.
var ErrUnauthenticated = errors.New("user not authenticated")

// User is the identity of a signed-in account.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email"`
}

// Provider is an identity provider: it owns credentials and sessions.
// Errors are provider specific and are passed through untouched.
type Provider interface {
	Register(ctx context.Context, email, password, displayName string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	Logout(ctx context.Context) error
	// Watch calls fn with the auth state as soon as it is known, then again on every change.
	Watch(fn func(*User)) (stop func())
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying usr.
func WithUser(ctx context.Context, usr *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, usr)
}

// UserFromContext returns the user carried by ctx, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	usr, ok := ctx.Value(ctxKey{}).(*User)
	return usr, ok && usr != nil && usr.ID != ""
}

// RequireUser returns the user carried by ctx or ErrUnauthenticated.
func RequireUser(ctx context.Context) (*User, error) {
	if usr, ok := UserFromContext(ctx); ok {
		return usr, nil
	}
	return nil, ErrUnauthenticated
}
