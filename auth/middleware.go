package auth

import (
	"bounty-lab/errors"
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// Middleware rejects requests without a valid bearer token carrying the scope.
func Middleware(issuer *TokenIssuer, scope string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, errors.ErrMissingToken)
				return
			}
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				unauthorized(w, errors.ErrInvalidToken)
				return
			}
			claims, err := issuer.ValidateToken(tokenString)
			if err != nil {
				unauthorized(w, errors.ErrInvalidToken)
				return
			}
			if !claims.HasScope(scope) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing scope " + scope})
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom returns the claims set by Middleware, if any.
func ClaimsFrom(ctx context.Context) (*CustomClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*CustomClaims)
	return claims, ok
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="bounty-lab"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
