package kit

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MetricsAuth guards the metrics endpoint with a bearer token checked
// against its bcrypt hash. An empty hash closes the endpoint.
func MetricsAuth(tokenHash string) func(http.Handler) http.Handler {
	hash := []byte(tokenHash)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if len(hash) == 0 || !ok || token == "" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
