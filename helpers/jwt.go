package helpers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/cristalhq/jwt/v5"
)

var (
	ErrInvalidTime   = errors.New("invalid time")
	ErrInvalidIssuer = errors.New("invalid issuer")
	ErrEmptySubject  = errors.New("empty subject")
)

// Tokens creates and checks the access tokens handed to
// the client once the identity provider signed the user in
type Tokens struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewTokens creates a HS512 token manager
func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{key: []byte(secret), issuer: issuer, ttl: ttl}
}

// CreateToken allows to create JWT tokens
func (t *Tokens) CreateToken(email string) (string, error) {
	if email == "" {
		return "", ErrEmptySubject
	}

	signer, err := jwt.NewSignerHS(jwt.HS512, t.key)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()

	token, err := jwt.NewBuilder(signer).Build(&jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		Issuer:    t.issuer,
	})
	if err != nil {
		return "", err
	}

	return token.String(), nil
}

// CheckToken verifies the token and returns its subject, the email
func (t *Tokens) CheckToken(token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))

	verifier, err := jwt.NewVerifierHS(jwt.HS512, t.key)
	if err != nil {
		return "", err
	}

	newToken, err := jwt.Parse([]byte(token), verifier)
	if err != nil {
		return "", err
	}

	// get Registered claims
	var claims jwt.RegisteredClaims
	if err = json.Unmarshal(newToken.Claims(), &claims); err != nil {
		return "", err
	}

	if !claims.IsValidAt(time.Now()) {
		return "", ErrInvalidTime
	}

	if claims.Issuer != t.issuer {
		return "", ErrInvalidIssuer
	}

	if claims.Subject == "" {
		return "", ErrEmptySubject
	}

	return claims.Subject, nil
}
