package config

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT signs and verifies session tokens with a shared secret.
type JWT struct {
	secret        []byte
	signingMethod jwt.SigningMethod
	tokenLifetime time.Duration
}

// NewJWT uses the configured secret, or a random one when it is empty.
func (c SessionConfig) NewJWT() (*JWT, error) {
	secret := []byte(c.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("unable to generate session secret: %w", err)
		}
	}
	return &JWT{
		secret:        secret,
		signingMethod: jwt.SigningMethodHS256,
		tokenLifetime: c.Lifetime.Duration,
	}, nil
}

func (j *JWT) TokenLifetime() time.Duration {
	return j.tokenLifetime
}

func (j *JWT) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(j.signingMethod, claims).SignedString(j.secret)
}

func (j *JWT) ParseWithClaims(tokenString string, claims jwt.Claims) (*jwt.Token, error) {
	return jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			return j.secret, nil
		},
		jwt.WithValidMethods([]string{j.signingMethod.Alg()}),
	)
}
