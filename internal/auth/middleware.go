// internal/auth/middleware.go
package auth

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"ticketsync/internal/transport"
)

// HeaderAPIKey carries the admin key; "Authorization: Bearer <key>" is
// accepted too.
const HeaderAPIKey = "X-API-Key"

// Require rejects requests without a valid key. A nil verifier leaves the
// API open, which is logged once at startup by the caller.
func Require(v *Verifier, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := presentedKey(r)
			if key == "" || !v.Verify(key) {
				logger.WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				}).Warn(ErrInvalidKey.Error())
				transport.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "a valid API key is required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if key := r.Header.Get(HeaderAPIKey); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
