package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

type TokenMaker struct {
	secret []byte
	issuer string
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{
		secret: []byte(secret),
		issuer: "zaiqa-site",
	}
}

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// NewScope mints a fresh visitor scope and its signed token.
func (t *TokenMaker) NewScope(ttl time.Duration) (scope, token string, err error) {
	scope = uuid.NewString()
	token, err = t.New(scope, ttl)
	return scope, token, err
}

func (t *TokenMaker) New(scope string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   scope,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer))
	if err != nil || token == nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if _, err := uuid.Parse(c.Scope); err != nil {
		return Claims{}, ErrInvalidToken
	}

	return c, nil
}
