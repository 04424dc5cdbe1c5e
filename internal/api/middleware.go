// Package api implements the launchpad HTTP API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
)

const basicRealm = `Basic realm="Admin Access"`

// BasicAuthMiddleware returns middleware guarding the admin surface with
// HTTP Basic credentials. Only the password is checked; the username is
// ignored. If enabled is false, all requests pass through.
func BasicAuthMiddleware(enabled bool, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			_, pass, ok := r.BasicAuth()
			if !ok || subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", basicRealm)
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// actor names the caller for the audit log: the Basic username when one
// was sent, otherwise the remote address.
func actor(r *http.Request) string {
	if user, _, ok := r.BasicAuth(); ok && user != "" {
		return user
	}
	return r.RemoteAddr
}
