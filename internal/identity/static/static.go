// Package static is a fixed-token identity provider for development and
// tests.
package static

import (
	"context"
	"sync"

	"bilancio/internal/identity"
)

type Provider struct {
	mu       sync.Mutex
	sessions map[string]identity.Session
}

// Ensure interface conformance
var _ identity.Provider = (*Provider)(nil)

func New() *Provider {
	return &Provider{sessions: map[string]identity.Session{}}
}

// Register binds a credential to a session.
func (p *Provider) Register(credential string, session identity.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[credential] = session
}

func (p *Provider) Verify(_ context.Context, credential string) (identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	session, ok := p.sessions[credential]
	if !ok {
		return identity.Session{}, identity.ErrInvalidCredential
	}
	return session, nil
}
