package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
)

// tokenTTL is how long an issued identity token stays valid.
const tokenTTL = 7 * 24 * time.Hour

// Tokens issues and verifies HS256 identity tokens.
type Tokens struct {
	secret []byte
}

// NewTokens creates a token service over the signing secret.
func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

// Issue signs a token carrying the user id as subject.
func (t *Tokens) Issue(userID uuid.UUID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, err, "signing token")
	}
	return signed, nil
}

// Verify parses a token and returns the user id it identifies.
func (t *Tokens) Verify(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, apperr.Unauthorized("unexpected signing method")
			}
			return t.secret, nil
		})
	if err != nil || !token.Valid {
		return uuid.Nil, apperr.Unauthorized("invalid or expired token")
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, apperr.Unauthorized("malformed token claims")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperr.Unauthorized("malformed token subject")
	}
	return userID, nil
}
