package auth

import (
	"bounty-lab/errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestToken_Generate_And_Validate(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("a-test-secret-long-enough-for-hs256")

	token, err := issuer.GenerateToken("deposit-flow", []string{ScopeDepositWrite}, time.Minute)
	req.NoError(err)

	claims, err := issuer.ValidateToken(token)
	req.NoError(err)
	req.Equal("deposit-flow", claims.Collaborator)
	req.True(claims.HasScope(ScopeDepositWrite))
	req.False(claims.HasScope(ScopeActivityWrite))
}

func TestToken_Rejections(t *testing.T) {
	tokens := NewTokenIssuer("a-test-secret-long-enough-for-hs256")
	other := NewTokenIssuer("another-secret-long-enough-for-hs256")

	expired, err := tokens.GenerateToken("deposit-flow", nil, -time.Minute)
	require.NoError(t, err)
	foreign, err := other.GenerateToken("deposit-flow", nil, time.Minute)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &CustomClaims{
		Collaborator:     "deposit-flow",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"Expired", expired},
		{"Signed with another secret", foreign},
		{"Algorithm none", unsigned},
		{"Garbage", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.ValidateToken(tt.token)
			require.ErrorIs(t, err, errors.ErrInvalidToken)
		})
	}
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("a-test-secret-long-enough-for-hs256")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(claims.Collaborator))
	})
	handler := Middleware(issuer, ScopeActivityWrite)(next)

	valid, err := issuer.GenerateToken("post-flow", []string{ScopeActivityWrite}, time.Minute)
	require.NoError(t, err)
	wrongScope, err := issuer.GenerateToken("post-flow", []string{ScopeDepositWrite}, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"Missing header", "", http.StatusUnauthorized},
		{"Not a bearer", "Basic abc", http.StatusUnauthorized},
		{"Invalid token", "Bearer nope", http.StatusUnauthorized},
		{"Missing scope", "Bearer " + wrongScope, http.StatusForbidden},
		{"Valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			r := httptest.NewRequest(http.MethodPost, "/rooms/alpha/activity", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			req.Equal(tt.status, w.Code)
			if tt.status == http.StatusOK {
				req.Equal("post-flow", w.Body.String())
			}
		})
	}
}
