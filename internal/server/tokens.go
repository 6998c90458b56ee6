package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "sesh-dev"

var (
	errAccessExpired = errors.New("access token expired")
	errAccessInvalid = errors.New("access token invalid")
)

// accessClaims is the payload of an access token.
type accessClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// tokenSigner issues and validates HS256 access tokens.
type tokenSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func (s *tokenSigner) issue(userID, username string) (string, error) {
	now := s.now()
	claims := accessClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// parse validates raw. Expiry maps to errAccessExpired, anything else to errAccessInvalid.
func (s *tokenSigner) parse(raw string) (*accessClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)

	token, err := parser.ParseWithClaims(raw, &accessClaims{}, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, errAccessExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errAccessInvalid, err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, errAccessInvalid
	}
	return claims, nil
}
