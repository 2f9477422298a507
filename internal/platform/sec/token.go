// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the [TokenService].
package sec

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stayvia/stayvia/internal/platform/apperr"
)

// SessionClaims represents the payload embedded inside a session token.
//
// The token carries only the subject account id plus the standard
// issued-at/expires-at pair. Role and activity state are deliberately NOT
// embedded: the authentication middleware re-reads them from the account
// store, so a deactivated account or a role downgrade takes effect on the
// next request rather than surviving until token expiry.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// AccountID returns the token's subject account id.
func (c *SessionClaims) AccountID() string { return c.Subject }

// TokenService mints and verifies HS256 session tokens using a single
// process-wide secret.
//
// # Lifecycle
//
// The secret is loaded once at startup from configuration and never
// mutated afterwards. There is no server-side token state: verification is
// a pure function of the token string and the secret, safe for any number
// of concurrent callers.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService creates a new TokenService.
//
// # Parameters
//   - secret: The process-wide HMAC signing secret.
//   - issuer: The 'iss' claim stamped into every token.
//   - ttl: Session lifetime (expires-at = issued-at + ttl).
func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue creates a new signed session token for the given account id.
func (service *TokenService) Issue(accountID string) (string, error) {
	currentTime := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", apperr.Internal(err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a session token string.
//
// # Failure Ordering
//
// Signature and structural failures are reported as TOKEN_MALFORMED;
// a well-formed, correctly signed token past its expiry is TOKEN_EXPIRED.
// Verification performs no network or database I/O.
func (service *TokenService) VerifyToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return service.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.TokenExpired()
		}
		return nil, apperr.TokenMalformed()
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, apperr.TokenMalformed()
	}

	return claims, nil
}

// TTL returns the configured session lifetime.
func (service *TokenService) TTL() time.Duration { return service.ttl }
