package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// WebhookAuthConfig configures webhook authentication. Vapi server URLs
// support either a shared secret header or a signed JWT credential; both are
// accepted here. With neither configured, requests pass through.
type WebhookAuthConfig struct {
	// Secret is compared against the X-Vapi-Secret header.
	Secret string
	// JWTSecret verifies HMAC-signed bearer tokens.
	JWTSecret string
}

// WebhookAuth creates authentication middleware for the webhook endpoint.
func WebhookAuth(cfg WebhookAuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Secret == "" && cfg.JWTSecret == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.Secret != "" {
				header := r.Header.Get("X-Vapi-Secret")
				if subtle.ConstantTimeCompare([]byte(header), []byte(cfg.Secret)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			if cfg.JWTSecret != "" && validBearer(r.Header.Get("Authorization"), cfg.JWTSecret) {
				next.ServeHTTP(w, r)
				return
			}

			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		})
	}
}

func validBearer(authHeader, secret string) bool {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})

	return err == nil && token.Valid
}
