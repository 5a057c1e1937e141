// Package identity abstracts the external identity provider. The engine
// only ever consumes the resulting identity value; sign-up, credential
// handling and session mechanics belong to the provider.
package identity

import (
	"context"
	"errors"
)

// Session is the identity bound to the current sign-in.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

var ErrInvalidCredential = errors.New("invalid credential")

// Provider verifies an opaque credential (an ID token, a session key)
// into a Session.
type Provider interface {
	Verify(ctx context.Context, credential string) (Session, error)
}
