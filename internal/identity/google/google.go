// Package google verifies Google ID tokens into sessions.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"bilancio/internal/identity"

	"google.golang.org/api/idtoken"
)

type Verifier struct {
	audience string
}

// Ensure interface conformance
var _ identity.Provider = (*Verifier)(nil)

// New creates a verifier bound to the OAuth client ID the tokens must be
// issued for.
func New(clientID string) *Verifier {
	return &Verifier{audience: clientID}
}

// NewFromEnv creates a verifier from GOOGLE_OAUTH_CLIENT_ID.
func NewFromEnv() (*Verifier, error) {
	clientID := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_ID"))
	if clientID == "" {
		return nil, errors.New("missing GOOGLE_OAUTH_CLIENT_ID")
	}
	return New(clientID), nil
}

func (v *Verifier) Verify(ctx context.Context, credential string) (identity.Session, error) {
	payload, err := idtoken.Validate(ctx, credential, v.audience)
	if err != nil {
		return identity.Session{}, fmt.Errorf("%w: %s", identity.ErrInvalidCredential, err)
	}

	session := identity.Session{UserID: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		session.Email = email
	}
	return session, nil
}
