package auth

import (
	"bounty-lab/errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "bounty-lab"

// Scopes granted to collaborator services.
const (
	ScopeRoomWrite     = "room:write"
	ScopeActivityWrite = "activity:write"
	ScopeDepositWrite  = "deposit:write"
)

// CustomClaims identifies the collaborator calling the API.
type CustomClaims struct {
	Collaborator string   `json:"collaborator"`
	Scopes       []string `json:"scopes"`
	jwt.RegisteredClaims
}

func (c *CustomClaims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// TokenIssuer signs and verifies collaborator tokens with a shared HS256 secret.
// The secret comes from configuration and is owned by this value only.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// GenerateToken creates a signed JWT for a collaborator service.
func (i *TokenIssuer) GenerateToken(collaborator string, scopes []string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		Collaborator: collaborator,
		Scopes:       scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   collaborator,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// ValidateToken checks the signature, algorithm, issuer and expiration.
func (i *TokenIssuer) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.ErrInvalidToken
}
