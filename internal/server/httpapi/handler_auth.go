package httpapi

import (
	"net/http"

	"github.com/passtree/passtree/internal/common"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type sessionResponse struct {
	UserName string `json:"username"`
}

// handleToken implements password login: verify credentials, then issue a
// bearer session token. The TTL is reported in seconds for the client's
// information only; the authoritative expiry lives server-side.
func (s *HTTPServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	user, err := s.credentials.Verify(r.Context(), username, password)
	if err != nil {
		s.logger.Warn(r.Context(), "login rejected", "username", username)
		writeError(w, err)
		return
	}

	session, err := s.sessions.Issue(r.Context(), user.ID, s.sessions.TTL())
	if err != nil {
		s.logger.Error(r.Context(), err.Error())
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "user logged in", "username", username)

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: session.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.sessions.TTL().Seconds()),
	})
}

// handleRevoke deletes the presented token if it belongs to the caller.
// Mismatches are silent no-ops so revocation cannot be used as an oracle.
func (s *HTTPServer) handleRevoke(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, common.ErrorInvalidInput)
		return
	}
	token := r.PostForm.Get("token")

	if err := s.sessions.Revoke(r.Context(), token, session.UserID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleSession reports the authenticated caller's identity.
func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{UserName: session.UserName})
}
