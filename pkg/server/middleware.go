package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/FCMSStudent/laterr-sub000/pkg/apierr"
)

// requireAuth checks the bearer token. An empty configured token
// disables authentication, which is meant for local development only.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, apierr.AuthMissing("missing Authorization header"))
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, apierr.AuthInvalid("Authorization header must use the Bearer scheme"))
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			writeError(w, apierr.AuthInvalid("invalid token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
