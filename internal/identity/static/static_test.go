package static

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/identity"
)

func TestVerify(t *testing.T) {
	p := New()
	p.Register("dev-token", identity.Session{UserID: "local", Email: "dev@example.com"})

	sess, err := p.Verify(context.Background(), "dev-token")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sess.UserID != "local" || sess.Email != "dev@example.com" {
		t.Errorf("session = %+v", sess)
	}
}

func TestVerifyUnknownCredential(t *testing.T) {
	p := New()
	p.Register("dev-token", identity.Session{UserID: "local"})

	tests := []string{"wrong", "", "dev-token "}
	for _, cred := range tests {
		if _, err := p.Verify(context.Background(), cred); !errors.Is(err, identity.ErrInvalidCredential) {
			t.Errorf("Verify(%q) error = %v, want ErrInvalidCredential", cred, err)
		}
	}
}
