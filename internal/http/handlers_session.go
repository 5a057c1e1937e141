package http

import (
	"encoding/json"
	"net/http"

	"bilancio/internal/identity"
)

type signInPayload struct {
	Credential string `json:"credential"`
}

func (s *server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var p signInPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Credential == "" {
		respondError(w, http.StatusBadRequest, "missing credential")
		return
	}

	sess, err := s.provider.Verify(r.Context(), p.Credential)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Credential verification failed", "error", err)
		respondError(w, http.StatusUnauthorized, identity.ErrInvalidCredential.Error())
		return
	}

	s.coord.SignIn(r.Context(), sess)
	respondJSON(w, http.StatusOK, sess)
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.coord.Session()
	respondJSON(w, http.StatusOK, map[string]any{
		"authenticated": ok,
		"session":       sess,
	})
}

func (s *server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.coord.SignOut(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}
