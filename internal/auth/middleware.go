package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const credentialContextKey contextKey = "credential"

// Credential is what the middleware extracted from the request: either the
// raw API key from the X-API-Key header, or claims from a bearer token.
type Credential struct {
	RawKey string
	Claims *Claims
}

type Middleware struct {
	jwtSecret string
}

func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{jwtSecret: jwtSecret}
}

// Authenticate accepts an API key header or a bearer JWT and stores the
// credential in the request context. Admission (tenant status, quota) is
// the gateway's job and happens per handler.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
			ctx := context.WithValue(r.Context(), credentialContextKey, &Credential{RawKey: apiKey})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing credentials", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := ValidateToken(parts[1], m.jwtSecret)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), credentialContextKey, &Credential{Claims: claims})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetCredentialFromContext(ctx context.Context) (*Credential, bool) {
	cred, ok := ctx.Value(credentialContextKey).(*Credential)
	return cred, ok
}
