package server

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dbmodel "github.com/superpage/superpay-go/db/model"
)

// Sessions stay valid for 30 days before a fresh login is required.
const sessionTTL = 30 * 24 * time.Hour

// SessionClaims identify a logged-in user.
type SessionClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *Server) jwtSecret() []byte {
	if s.config.JWTSecret == "" {
		return []byte("dev-secret-do-not-use-in-prod")
	}
	return []byte(s.config.JWTSecret)
}

// GenerateSessionToken creates an access token for a user.
func (s *Server) GenerateSessionToken(user *dbmodel.User) (string, error) {
	claims := SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "superpay",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret())
}

// parseSessionToken validates a token and returns its claims.
func (s *Server) parseSessionToken(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}
