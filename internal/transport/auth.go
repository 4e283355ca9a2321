package transport

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// TokenMiddleware enforces a static bearer token.
func TokenMiddleware(token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			got := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if got == "" {
				writeJSON(w, http.StatusUnauthorized, ErrorBody{Error: "missing bearer token", Code: "unauthorized"})
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				writeJSON(w, http.StatusUnauthorized, ErrorBody{Error: "invalid bearer token", Code: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
