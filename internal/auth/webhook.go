// internal/auth/webhook.go
package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"ticketsync/internal/transport"
)

const HeaderWebhookSignature = "X-WC-Webhook-Signature"

// Sign returns the base64 HMAC-SHA256 of body, as the catalog computes it.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// WebhookPolicy says how webhook requests are authenticated. Without a
// secret, webhooks are refused unless AllowUnsigned is set.
type WebhookPolicy struct {
	Secret        string
	AllowUnsigned bool
}

// RequireSignature checks the webhook signature header against the body.
func RequireSignature(policy WebhookPolicy, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	secret := policy.Secret
	return func(next http.Handler) http.Handler {
		if secret == "" {
			if policy.AllowUnsigned {
				return next
			}
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger.WithField("path", r.URL.Path).Warn("webhook refused: no signing secret configured")
				transport.WriteProblem(w, http.StatusServiceUnavailable, "webhook disabled", "no webhook signing secret is configured", nil)
			})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				transport.WriteProblem(w, http.StatusBadRequest, "invalid body", err.Error(), nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			want := Sign(secret, body)
			got := r.Header.Get(HeaderWebhookSignature)
			if !hmac.Equal([]byte(want), []byte(got)) {
				logger.WithField("path", r.URL.Path).Warn("webhook signature mismatch")
				transport.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "webhook signature mismatch", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
