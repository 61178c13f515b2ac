// Package service holds the resolution engine and the link and account
// services, plus the session token handling of the access gate.
package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/atinyakov/go-link-gate/internal/models"
)

// Claims represents the claims that are included in the session token. Only
// the principal travels in the token; account state is always re-fetched.
type Claims struct {
	jwt.RegisteredClaims
	Name string      `json:"name"`
	Role models.Role `json:"role"`
}

// Principal returns the identity carried by the claims.
func (c *Claims) Principal() models.Principal {
	return models.Principal{Name: c.Name, Role: c.Role}
}

// TokenExp defines the lifetime of a session token.
const TokenExp = time.Hour * 24 * 7

// Auth signs and parses session tokens with an HMAC secret.
type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// BuildJWTString returns a signed token for p.
func (a *Auth) BuildJWTString(p models.Principal) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Name,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExp)),
		},
		Name: p.Name,
		Role: p.Role,
	})

	return token.SignedString(a.secret)
}

// ParseClaims parses the token stored in the session cookie.
func (a *Auth) ParseClaims(c *http.Cookie) (*Claims, error) {
	if c == nil {
		return nil, fmt.Errorf("no session cookie")
	}
	return a.ParseRawJWT(c.Value)
}

func (a *Auth) ParseRawJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Name == "" {
		return nil, fmt.Errorf("invalid token or claims")
	}

	return claims, nil
}
