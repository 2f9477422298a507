// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayvia/stayvia/internal/platform/apperr"
	"github.com/stayvia/stayvia/internal/platform/ctxutil"
	"github.com/stayvia/stayvia/internal/platform/middleware"
	"github.com/stayvia/stayvia/internal/platform/sec"
)

// # Test Doubles

type fakeVerifier struct {
	claims *sec.SessionClaims
	err    error
}

func (f *fakeVerifier) VerifyToken(tokenStr string) (*sec.SessionClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

type fakeLoader struct {
	principal *sec.Principal
	err       error
	loadCalls int
}

func (f *fakeLoader) LoadPrincipal(ctx context.Context, accountID string) (*sec.Principal, error) {
	f.loadCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.principal, nil
}

func claimsFor(accountID string) *sec.SessionClaims {
	return &sec.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: accountID},
	}
}

// capturedPrincipal runs a request through the middleware chain and records
// the principal the downstream handler observes.
func runAuthenticate(t *testing.T, verifier middleware.TokenVerifier, loader middleware.PrincipalLoader, authHeader string) (*httptest.ResponseRecorder, *sec.Principal) {
	t.Helper()

	var observed *sec.Principal
	next := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		observed = ctxutil.GetPrincipal(request.Context())
		writer.WriteHeader(http.StatusOK)
	})

	handler := middleware.Authenticate(verifier, loader)(next)

	request := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		request.Header.Set("Authorization", authHeader)
	}
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)
	return recorder, observed
}

func decodeErrorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Code
}

// # Authenticate

/*
TestAuthenticate_AnonymousPassThrough verifies that a request without an
Authorization header proceeds with no principal attached.
*/
func TestAuthenticate_AnonymousPassThrough(t *testing.T) {
	loader := &fakeLoader{}
	recorder, principal := runAuthenticate(t, &fakeVerifier{}, loader, "")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, principal)
	assert.Zero(t, loader.loadCalls)
}

/*
TestAuthenticate_MalformedHeader covers non-bearer authorization schemes and
truncated headers.
*/
func TestAuthenticate_MalformedHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"wrong_scheme", "Basic dXNlcjpwYXNz"},
		{"no_token", "Bearer"},
		{"too_many_parts", "Bearer abc def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, principal := runAuthenticate(t, &fakeVerifier{}, &fakeLoader{}, tt.header)

			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.Equal(t, "TOKEN_MALFORMED", decodeErrorCode(t, recorder))
			assert.Nil(t, principal)
		})
	}
}

/*
TestAuthenticate_VerifierFailure ensures verification errors (expired,
malformed) propagate unchanged and short-circuit before any account load.
*/
func TestAuthenticate_VerifierFailure(t *testing.T) {
	loader := &fakeLoader{}
	verifier := &fakeVerifier{err: apperr.TokenExpired()}

	recorder, principal := runAuthenticate(t, verifier, loader, "Bearer some-token")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "TOKEN_EXPIRED", decodeErrorCode(t, recorder))
	assert.Nil(t, principal)
	assert.Zero(t, loader.loadCalls)
}

/*
TestAuthenticate_InactiveAccount verifies the fail-closed behavior: a valid
token whose account has been deactivated is rejected with ACCOUNT_INACTIVE
after exactly one account load.
*/
func TestAuthenticate_InactiveAccount(t *testing.T) {
	verifier := &fakeVerifier{claims: claimsFor("account-1")}
	loader := &fakeLoader{err: apperr.AccountInactive()}

	recorder, principal := runAuthenticate(t, verifier, loader, "Bearer valid-token")

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "ACCOUNT_INACTIVE", decodeErrorCode(t, recorder))
	assert.Nil(t, principal)
	assert.Equal(t, 1, loader.loadCalls)
}

/*
TestAuthenticate_Success verifies that a valid token resolves to a principal
attached to the request context, with exactly one account load.
*/
func TestAuthenticate_Success(t *testing.T) {
	verifier := &fakeVerifier{claims: claimsFor("account-1")}
	loader := &fakeLoader{principal: &sec.Principal{
		AccountID:  "account-1",
		Role:       sec.RoleOwner,
		IsVerified: true,
	}}

	recorder, principal := runAuthenticate(t, verifier, loader, "Bearer valid-token")

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, principal)
	assert.Equal(t, "account-1", principal.AccountID)
	assert.Equal(t, sec.RoleOwner, principal.Role)
	assert.Equal(t, 1, loader.loadCalls)
}

// # RequireAuth

/*
TestRequireAuth rejects anonymous requests with MISSING_TOKEN and passes
authenticated ones through.
*/
func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	handler := middleware.RequireAuth(next)

	t.Run("anonymous_rejected", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "MISSING_TOKEN", decodeErrorCode(t, recorder))
	})

	t.Run("authenticated_passes", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		ctx := ctxutil.WithPrincipal(request.Context(), &sec.Principal{AccountID: "account-1", Role: sec.RoleSeeker})
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request.WithContext(ctx))

		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

// # RequireRole

/*
TestRequireRole verifies the allow-list gate: missing principal yields
UNAUTHENTICATED, a role outside the list yields FORBIDDEN, and a listed
role passes.
*/
func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	adminOnly := middleware.RequireRole(sec.RoleAdmin)(next)

	t.Run("missing_principal", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/admin", nil)
		recorder := httptest.NewRecorder()

		adminOnly.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "UNAUTHENTICATED", decodeErrorCode(t, recorder))
	})

	t.Run("seeker_forbidden_on_admin_route", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/admin", nil)
		ctx := ctxutil.WithPrincipal(request.Context(), &sec.Principal{AccountID: "account-1", Role: sec.RoleSeeker})
		recorder := httptest.NewRecorder()

		adminOnly.ServeHTTP(recorder, request.WithContext(ctx))

		assert.Equal(t, http.StatusForbidden, recorder.Code)
		assert.Equal(t, "FORBIDDEN", decodeErrorCode(t, recorder))
	})

	t.Run("admin_allowed", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/admin", nil)
		ctx := ctxutil.WithPrincipal(request.Context(), &sec.Principal{AccountID: "account-2", Role: sec.RoleAdmin})
		recorder := httptest.NewRecorder()

		adminOnly.ServeHTTP(recorder, request.WithContext(ctx))

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("multi_role_allow_list", func(t *testing.T) {
		staffOnly := middleware.RequireRole(sec.RoleAdmin, sec.RoleOwner)(next)

		request := httptest.NewRequest(http.MethodGet, "/staff", nil)
		ctx := ctxutil.WithPrincipal(request.Context(), &sec.Principal{AccountID: "account-3", Role: sec.RoleOwner})
		recorder := httptest.NewRecorder()

		staffOnly.ServeHTTP(recorder, request.WithContext(ctx))

		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}
