package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/laguz/internal/apperr"
)

// Claims carries the authenticated user id alongside the registered claims.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken issues an HS256 session token for userID valid for ttl.
func GenerateToken(secret []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates a session token and returns the user id it names.
func ParseToken(secret []byte, tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return "", apperr.ErrUnauthorized
	}
	if !token.Valid || claims.UserID == "" {
		return "", apperr.ErrUnauthorized
	}
	return claims.UserID, nil
}
