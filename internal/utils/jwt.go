// Package utils verifies identity tokens issued by the external identity
// provider.
package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSubject is returned for a valid token without a "sub" claim.
var ErrMissingSubject = errors.New("token has no subject")

// ParseIdentityToken verifies an HS256 token and returns its subject, the
// opaque user identifier.  exp is required.  When issuer is non-empty the
// iss claim must match it.
func ParseIdentityToken(secret, issuer, raw string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("parse identity token: %w", err)
	}
	if !tok.Valid {
		return "", errors.New("parse identity token: invalid")
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

// SignIdentityToken issues an HS256 token for subject that expires after
// ttl.  The service never issues tokens itself; this is used by tests and
// local tooling.
func SignIdentityToken(secret, issuer, subject string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
