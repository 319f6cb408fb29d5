package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
)

// Issuer signs and checks HS256 bearer tokens whose subject is the caller
// identity.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("auth secret can't be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("auth ttl must be positive")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (i *Issuer) Issue(subject string) (string, error) {
	return i.IssueWithTTL(subject, i.ttl)
}

func (i *Issuer) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject can't be empty")
	}

	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate returns the token subject, or ErrTokenExpired, ErrTokenMalformed
// or ErrTokenInvalid.
func (i *Issuer) Validate(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	switch {
	case err == nil && parsed.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "", ErrTokenMalformed
	default:
		return "", ErrTokenInvalid
	}

	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
