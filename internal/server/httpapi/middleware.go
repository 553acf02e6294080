package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/passtree/passtree/internal/common"
	"github.com/passtree/passtree/internal/server/models"
)

type contextKey string

const sessionKey contextKey = "session"

// requireAuth extracts the bearer token, resolves it through the guard and
// stores the session in the request context. Missing, malformed, unknown
// and expired tokens are all a uniform 401.
func (s *HTTPServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, common.ErrorUnauthorized)
			return
		}

		session, err := s.guard.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromContext returns the session stored by requireAuth.
func sessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*models.Session)
	return session, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(common.AccessTokenHeaderName)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
