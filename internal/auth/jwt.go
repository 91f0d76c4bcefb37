package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed envelope carried by user bearer tokens.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies user bearer tokens. The secret and
// lifetime are deployment-wide, read-only after boot.
type TokenIssuer struct {
	secret    []byte
	expiresIn time.Duration
}

func NewTokenIssuer(secret string, expiresIn time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), expiresIn: expiresIn}
}

// Mint signs a token for the given user.
func (t *TokenIssuer) Mint(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses and validates a bearer token, returning its claims.
// Any signature, expiry, or shape problem yields an error.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
