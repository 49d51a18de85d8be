package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL keeps a login valid long enough for a single-user journal; there
// is no refresh flow.
const tokenTTL = 30 * 24 * time.Hour

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
)

type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator issues and verifies the single shared-password login token.
type Authenticator struct {
	password string
	secret   []byte
	clock    func() time.Time
}

func New(password, secret string) *Authenticator {
	return &Authenticator{
		password: password,
		secret:   []byte(secret),
		clock:    time.Now,
	}
}

// Issue exchanges the application password for a signed bearer token.
func (a *Authenticator) Issue(password string) (string, error) {
	if a.password == "" || password != a.password {
		return "", ErrInvalidPassword
	}

	now := a.clock()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "journal",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry. Any defect maps to ErrInvalidToken so
// the transport layer answers uniformly.
func (a *Authenticator) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.clock))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
