// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayvia/stayvia/internal/identity/auth"
	"github.com/stayvia/stayvia/internal/platform/constants"
	"github.com/stayvia/stayvia/internal/platform/middleware"
	"github.com/stayvia/stayvia/internal/platform/sec"
)

const testSuccessRedirect = "https://app.stayvia.test/oauth/done"

// fakeFederatedProvider stands in for the Google/Facebook clients so the
// OAuth transport flow can be exercised without network calls.
type fakeFederatedProvider struct {
	identity *auth.ProviderIdentity
	err      error
}

func (f *fakeFederatedProvider) Name() string { return auth.ProviderGoogle }

func (f *fakeFederatedProvider) AuthCodeURL(state string) string {
	return "https://provider.test/consent?state=" + url.QueryEscape(state)
}

func (f *fakeFederatedProvider) FetchIdentity(_ context.Context, _ string) (*auth.ProviderIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

// newTestRouter assembles the identity routes behind the same middleware
// chain the API server mounts them with.
func newTestRouter(provider auth.FederatedProvider) (chi.Router, *fakeAccountRepo, *sec.TokenService) {
	repo := newFakeAccountRepo()
	service, _, _, tokens := newTestService(repo)

	var providers []auth.FederatedProvider
	if provider != nil {
		providers = append(providers, provider)
	}
	handler := auth.NewHandler(service, testSuccessRedirect, providers...)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokens, service))
	router.Mount("/api/v1/auth", handler.Routes())
	return router, repo, tokens
}

func postJSON(t *testing.T, router chi.Router, path, token string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(encoded))
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func getWithToken(t *testing.T, router chi.Router, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

// decodeData unwraps the standard success envelope.
func decodeData(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Data
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Code
}

// # Local Account Endpoints

/*
TestHTTP_RegisterLoginMe walks the primary happy path over the wire:
register, read the current account with the issued token, log in again, and
fail a login with the wrong password.
*/
func TestHTTP_RegisterLoginMe(t *testing.T) {
	router, _, _ := newTestRouter(nil)

	registered := postJSON(t, router, "/api/v1/auth/register", "", map[string]any{
		"name":     "Jane Doe",
		"email":    "jane@example.com",
		"password": "a-strong-password",
		"role":     "owner",
	})
	require.Equal(t, http.StatusCreated, registered.Code, registered.Body.String())

	data := decodeData(t, registered)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	account, ok := data["account"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", account["email"])
	assert.Equal(t, "owner", account["role"])
	assert.NotContains(t, account, "password_hash", "hashes must never leave the API")
	assert.NotContains(t, registered.Body.String(), "a-strong-password")

	me := getWithToken(t, router, "/api/v1/auth/me", token)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	assert.Equal(t, "jane@example.com", decodeData(t, me)["email"])

	login := postJSON(t, router, "/api/v1/auth/login", "", map[string]any{
		"email":    "JANE@example.com",
		"password": "a-strong-password",
	})
	require.Equal(t, http.StatusOK, login.Code, login.Body.String())
	assert.NotEmpty(t, decodeData(t, login)["token"])

	badLogin := postJSON(t, router, "/api/v1/auth/login", "", map[string]any{
		"email":    "jane@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, badLogin.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, badLogin))
}

/*
TestHTTP_RegisterValidation covers the input gate: each broken payload must
fail before the service layer is reached.
*/
func TestHTTP_RegisterValidation(t *testing.T) {
	router, repo, _ := newTestRouter(nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing_name", map[string]any{"email": "a@b.com", "password": "longenough"}},
		{"bad_email", map[string]any{"name": "Jane", "email": "not-an-email", "password": "longenough"}},
		{"short_password", map[string]any{"name": "Jane", "email": "a@b.com", "password": "short"}},
		{"admin_role_rejected", map[string]any{"name": "Jane", "email": "a@b.com", "password": "longenough", "role": "admin"}},
		{"unknown_role", map[string]any{"name": "Jane", "email": "a@b.com", "password": "longenough", "role": "landlord"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := postJSON(t, router, "/api/v1/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, recorder))
		})
	}

	assert.Zero(t, repo.writeCount(), "invalid payloads must never reach storage")
}

/*
TestHTTP_ProtectedEndpoints verifies the bearer gate on the session routes.
*/
func TestHTTP_ProtectedEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(nil)

	t.Run("no_token", func(t *testing.T) {
		recorder := getWithToken(t, router, "/api/v1/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "MISSING_TOKEN", errorCode(t, recorder))
	})

	t.Run("garbage_token", func(t *testing.T) {
		recorder := getWithToken(t, router, "/api/v1/auth/me", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "TOKEN_MALFORMED", errorCode(t, recorder))
	})
}

/*
TestHTTP_RefreshAndLogout exercises the authenticated session endpoints.
*/
func TestHTTP_RefreshAndLogout(t *testing.T) {
	router, _, tokens := newTestRouter(nil)

	registered := postJSON(t, router, "/api/v1/auth/register", "", map[string]any{
		"name": "Jane Doe", "email": "jane@example.com", "password": "a-strong-password",
	})
	require.Equal(t, http.StatusCreated, registered.Code)
	token := decodeData(t, registered)["token"].(string)

	refreshed := postJSON(t, router, "/api/v1/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, refreshed.Code, refreshed.Body.String())

	data := decodeData(t, refreshed)
	assert.Equal(t, "Bearer", data["token_type"])
	assert.Equal(t, float64(3600), data["expires_in"])

	freshToken, _ := data["token"].(string)
	require.NotEmpty(t, freshToken)
	claims, err := tokens.VerifyToken(freshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.AccountID())

	logout := postJSON(t, router, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, logout.Code)
}

// # Federated Endpoints

/*
TestHTTP_OAuthRoundTrip drives the full browser flow: the redirect plants
the state cookie, the callback validates it, and the browser lands on the
success URL with a verifiable token attached.
*/
func TestHTTP_OAuthRoundTrip(t *testing.T) {
	provider := &fakeFederatedProvider{identity: &auth.ProviderIdentity{
		Provider:    auth.ProviderGoogle,
		SubjectID:   "google-sub-1",
		Email:       "jane@example.com",
		DisplayName: "Jane Doe",
	}}
	router, repo, tokens := newTestRouter(provider)

	// Step 1: consent redirect.
	redirect := getWithToken(t, router, "/api/v1/auth/oauth/google", "")
	require.Equal(t, http.StatusFound, redirect.Code)

	location := redirect.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://provider.test/consent?state="), location)

	var stateCookie *http.Cookie
	for _, cookie := range redirect.Result().Cookies() {
		if cookie.Name == constants.OAuthStateCookieName {
			stateCookie = cookie
		}
	}
	require.NotNil(t, stateCookie, "state cookie must be planted")
	require.NotEmpty(t, stateCookie.Value)
	assert.True(t, stateCookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, stateCookie.SameSite)

	// Step 2: provider callback.
	callback := httptest.NewRequest(http.MethodGet,
		"/api/v1/auth/oauth/google/callback?code=grant-code&state="+url.QueryEscape(stateCookie.Value), nil)
	callback.AddCookie(&http.Cookie{Name: constants.OAuthStateCookieName, Value: stateCookie.Value})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, callback)

	require.Equal(t, http.StatusFound, recorder.Code, recorder.Body.String())

	landing, err := url.Parse(recorder.Header().Get("Location"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(landing.String(), testSuccessRedirect), landing.String())

	issuedToken := landing.Query().Get("token")
	require.NotEmpty(t, issuedToken)
	claims, err := tokens.VerifyToken(issuedToken)
	require.NoError(t, err)

	created, err := repo.FindByID(context.Background(), claims.AccountID())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.True(t, created.IsVerified)
}

/*
TestHTTP_OAuthFailures covers the rejection paths of the federated flow.
*/
func TestHTTP_OAuthFailures(t *testing.T) {
	provider := &fakeFederatedProvider{identity: &auth.ProviderIdentity{
		Provider:  auth.ProviderGoogle,
		SubjectID: "google-sub-1",
		Email:     "jane@example.com",
	}}
	router, repo, _ := newTestRouter(provider)

	t.Run("unknown_provider", func(t *testing.T) {
		recorder := getWithToken(t, router, "/api/v1/auth/oauth/github", "")
		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, recorder))
	})

	t.Run("state_mismatch", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet,
			"/api/v1/auth/oauth/google/callback?code=grant-code&state=forged", nil)
		request.AddCookie(&http.Cookie{Name: constants.OAuthStateCookieName, Value: "genuine"})
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, recorder))
	})

	t.Run("missing_state_cookie", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet,
			"/api/v1/auth/oauth/google/callback?code=grant-code&state=something", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("provider_denial", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet,
			"/api/v1/auth/oauth/google/callback?error=access_denied", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	assert.Zero(t, repo.writeCount(), "rejected callbacks must not touch storage")
}

// # Recovery Endpoints

/*
TestHTTP_PasswordRecovery verifies the enumeration-safe forgot-password
response and the reset gate on bad tokens.
*/
func TestHTTP_PasswordRecovery(t *testing.T) {
	router, _, _ := newTestRouter(nil)

	t.Run("forgot_unknown_email_is_generic", func(t *testing.T) {
		recorder := postJSON(t, router, "/api/v1/auth/forgot-password", "", map[string]any{
			"email": "nobody@example.com",
		})
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "If this email is registered")
	})

	t.Run("reset_with_bad_token", func(t *testing.T) {
		recorder := postJSON(t, router, "/api/v1/auth/reset-password", "", map[string]any{
			"token":    "expired-or-forged",
			"password": "a-new-password",
		})
		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, recorder))
	})

	t.Run("verify_email_with_bad_token", func(t *testing.T) {
		recorder := postJSON(t, router, "/api/v1/auth/verify-email", "", map[string]any{
			"token": "expired-or-forged",
		})
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}
