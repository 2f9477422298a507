// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

// Package middleware provides the HTTP middleware chain for the Stayvia API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ/AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/stayvia/stayvia/internal/platform/apperr"
	"github.com/stayvia/stayvia/internal/platform/constants"
	"github.com/stayvia/stayvia/internal/platform/ctxutil"
	"github.com/stayvia/stayvia/internal/platform/respond"
	"github.com/stayvia/stayvia/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify session tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the `sec`
// implementation, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.SessionClaims, error)
}

// PrincipalLoader resolves a verified token subject into a request principal.
//
// Implementations perform exactly one account lookup and must fail closed:
// an unknown or deactivated account yields an ACCOUNT_INACTIVE error even
// though the token itself is cryptographically valid.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, accountID string) (*sec.Principal, error)
}

// Authenticate extracts and verifies the bearer token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous (strict gating happens in
//     [RequireAuth] / [RequireRole]).
//  3. If present, verify the token (stateless signature + expiry check).
//  4. Load the live account state via [PrincipalLoader] — one lookup per request.
//  5. Inject the [*sec.Principal] into the request context for downstream use.
//
// The gate is single-pass: it fully resolves to allow or reject before any
// downstream handler runs, and never retries or silently refreshes.
func Authenticate(verifier TokenVerifier, loader PrincipalLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.TokenMalformed())
				return
			}

			// ── 3. Stateless Token Verification ───────────────────────────────
			claims, err := verifier.VerifyToken(parts[1])
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Stateful Account Check ─────────────────────────────────────
			principal, err := loader.LoadPrincipal(request.Context(), claims.AccountID())
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 5. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that did not present a valid bearer token.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. A request without
// an Authorization header is rejected here with MISSING_TOKEN; requests with
// a bad token never reach this point.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal := ctxutil.GetPrincipal(request.Context())
		if principal == nil {
			respond.Error(writer, request, apperr.MissingToken())
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests whose principal's role is not in the allow-list.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It implies
// [RequireAuth]: a missing principal is rejected defensively with
// UNAUTHENTICATED (the authentication gate should already have run).
//
// The check is a pure predicate over the principal and a statically supplied
// role list — no store access, no side effects.
func RequireRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthenticated())
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !principal.Role.In(allowed...) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
