// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

/*
HTTP delivery layer for the identity domain.

The handler is a thin mediation layer between the web and the domain
service:

  - Protocol: RESTful JSON plus two browser-redirect OAuth endpoints.
  - Security: Bearer token issuance, anti-CSRF state cookies for the
    federated round-trip.
  - Verification: Strict input validation before anything reaches [Service].

This layer is strictly responsible for transport concerns (status codes,
headers, cookies, JSON).
*/

package auth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stayvia/stayvia/internal/platform/apperr"
	"github.com/stayvia/stayvia/internal/platform/constants"
	"github.com/stayvia/stayvia/internal/platform/middleware"
	requestutil "github.com/stayvia/stayvia/internal/platform/request"
	"github.com/stayvia/stayvia/internal/platform/respond"
	"github.com/stayvia/stayvia/internal/platform/sec"
	"github.com/stayvia/stayvia/internal/platform/validate"
)

// # Contracts

// FederatedProvider is the transport-facing contract of an external identity
// provider (implemented by internal/identity/federated).
type FederatedProvider interface {
	// Name returns the provider identifier used in routes ("google").
	Name() string

	// AuthCodeURL builds the consent-screen URL with the state embedded.
	AuthCodeURL(state string) string

	// FetchIdentity exchanges the callback code for a normalized identity.
	FetchIdentity(context context.Context, code string) (*ProviderIdentity, error)
}

// # Definitions & Constructors

// Handler implements the identity HTTP endpoints.
type Handler struct {
	authService     *Service
	providers       map[string]FederatedProvider
	successRedirect string
}

// NewHandler constructs a new [Handler].
//
// # Parameters
//   - service: The identity domain service.
//   - successRedirect: Where the browser lands (token attached) after a
//     successful federated login.
//   - providers: Configured federated providers; unconfigured ones are
//     simply not passed in and their routes 404.
func NewHandler(service *Service, successRedirect string, providers ...FederatedProvider) *Handler {
	providerMap := make(map[string]FederatedProvider, len(providers))
	for _, provider := range providers {
		providerMap[provider.Name()] = provider
	}

	return &Handler{
		authService:     service,
		providers:       providerMap,
		successRedirect: successRedirect,
	}
}

// Routes returns a [chi.Router] configured with the identity routes.
//
// # Endpoints
//
//	POST /register                     : Create a local account, open a session.
//	POST /login                        : Verify credentials, open a session.
//	GET  /oauth/{provider}             : Redirect to the provider consent screen.
//	GET  /oauth/{provider}/callback    : Complete the federated round-trip.
//	POST /verify-email                 : Confirm email ownership.
//	POST /forgot-password              : Start password recovery.
//	POST /reset-password               : Complete password recovery.
//	GET  /me                (auth)     : Current account view.
//	POST /refresh           (auth)     : Mint a fresh session token.
//	POST /logout            (auth)     : Record session end.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Get("/oauth/{provider}", handler.oauthRedirect)
	router.Get("/oauth/{provider}/callback", handler.oauthCallback)
	router.Post("/verify-email", handler.verifyEmail)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.me)
		r.Post("/refresh", handler.refresh)
		r.Post("/logout", handler.logout)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// sessionPayload is the response body for register/login: the bearer token
// plus the account view (password hash and raw links excluded by the entity
// JSON tags).
func sessionPayload(session *AuthSession) map[string]any {
	return map[string]any{
		FieldToken:   session.Token,
		FieldAccount: session.Account,
	}
}

// # Local Account Flow

/*
register handles the creation of a new local account.

POST /api/v1/auth/register

Description: Validates input and enrolls the account. Role may be "seeker"
or "owner"; anything else fails validation (admin is never self-service).

Request:
  - Body: registerRequest (Name, Email, Password, Role?)

Response:
  - 201: {token, account}
  - 400: VALIDATION_ERROR: Bad input
  - 409: CONFLICT: Email already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 120).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	role := sec.RoleSeeker
	if input.Role != "" {
		parsed, ok := sec.ParseRole(input.Role)
		validator.Custom(FieldRole, !ok || parsed == sec.RoleAdmin, "Must be one of: seeker, owner")
		if ok {
			role = parsed
		}
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Register(request.Context(), RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     role,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, sessionPayload(session))
}

/*
login verifies local credentials and opens a session.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: {token, account}
  - 400: INVALID_CREDENTIALS: Unknown email, federated-only account, or
    wrong password (indistinguishable by design)
  - 401: ACCOUNT_INACTIVE: Deactivated account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessionPayload(session))
}

// # Federated Flow

/*
oauthRedirect starts the federated login round-trip.

GET /api/v1/auth/oauth/{provider}

Description: Generates an anti-CSRF state nonce, stores it in a short-lived
HttpOnly cookie, and redirects the browser to the provider consent screen.

Response:
  - 302: Redirect to the provider
  - 404: NOT_FOUND: Unknown or unconfigured provider
*/
func (handler *Handler) oauthRedirect(writer http.ResponseWriter, request *http.Request) {
	provider, ok := handler.providers[requestutil.Param(request, FieldProvider)]
	if !ok {
		respond.Error(writer, request, apperr.NotFound("Identity provider"))
		return
	}

	state, err := sec.GenerateSecureToken(OAuthStateLength)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	// SameSite=Lax so the cookie survives the provider's cross-site redirect
	// back to the callback.
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.OAuthStateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(constants.OAuthStateTTL / time.Second),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(writer, request, provider.AuthCodeURL(state), http.StatusFound)
}

/*
oauthCallback completes the federated login round-trip.

GET /api/v1/auth/oauth/{provider}/callback?code=...&state=...

Description: Validates the state against the cookie, exchanges the code for
a provider identity, resolves it to an account, and redirects the browser
to the configured success URL with the issued token attached.

Response:
  - 302: Redirect to success URL with ?token=...
  - 400: MISSING_EMAIL / VALIDATION_ERROR
  - 401: UNAUTHORIZED: State mismatch or provider denial
  - 409: PROVIDER_CONFLICT / CONFLICT
*/
func (handler *Handler) oauthCallback(writer http.ResponseWriter, request *http.Request) {
	provider, ok := handler.providers[requestutil.Param(request, FieldProvider)]
	if !ok {
		respond.Error(writer, request, apperr.NotFound("Identity provider"))
		return
	}

	// The state cookie is single-use: clear it regardless of outcome.
	stateCookie, cookieErr := request.Cookie(constants.OAuthStateCookieName)
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.OAuthStateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	query := request.URL.Query()

	if denial := query.Get("error"); denial != "" {
		respond.Error(writer, request, apperr.Unauthorized("The identity provider denied the request"))
		return
	}

	state := query.Get("state")
	if cookieErr != nil || stateCookie.Value == "" || state == "" || state != stateCookie.Value {
		respond.Error(writer, request, apperr.Unauthorized("OAuth state mismatch"))
		return
	}

	code := query.Get("code")
	if code == "" {
		respond.Error(writer, request, validate.RequiredError("code", "is required"))
		return
	}

	identity, err := provider.FetchIdentity(request.Context(), code)
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	session, err := handler.authService.FederatedLogin(request.Context(), *identity)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	redirectURL := handler.successRedirect
	if parsed, parseErr := url.Parse(redirectURL); parseErr == nil {
		values := parsed.Query()
		values.Set(FieldToken, session.Token)
		parsed.RawQuery = values.Encode()
		redirectURL = parsed.String()
	}

	http.Redirect(writer, request, redirectURL, http.StatusFound)
}

// # Session Endpoints

/*
me returns the authenticated account's view.

GET /api/v1/auth/me

Response:
  - 200: Account view (no password hash, no raw links)
  - 401: MISSING_TOKEN / TOKEN_* / ACCOUNT_INACTIVE
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := handler.authService.CurrentAccount(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

/*
refresh mints a fresh session token for the authenticated account.

POST /api/v1/auth/refresh

Description: The previous token is not revoked (stateless sessions); it
lapses at its own expiry.

Response:
  - 200: {token, token_type, expires_in}
  - 401: MISSING_TOKEN / TOKEN_* / ACCOUNT_INACTIVE
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := handler.authService.Refresh(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldToken:     token,
		FieldTokenType: "Bearer",
		FieldExpiresIn: int64(handler.authService.TokenTTL() / time.Second),
	})
}

/*
logout records the end of the current session.

POST /api/v1/auth/logout

Description: Stamps last_active_at; the bearer token itself remains valid
until expiry and must be discarded client-side.

Response:
  - 204: No Content
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), accountID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Recovery & Verification

/*
verifyEmail confirms an account's email ownership.

POST /api/v1/auth/verify-email

Request:
  - Body: verifyEmailRequest (Token)

Response:
  - 200: Success message
  - 400: VALIDATION_ERROR: Missing token
  - 404: NOT_FOUND: Invalid or expired token
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input verifyEmailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "is required"))
		return
	}

	if err := handler.authService.VerifyEmail(request.Context(), input.Token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Email verified successfully",
	})
}

/*
forgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Description: Always answers with the same generic message so the endpoint
cannot be used to enumerate registered emails.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Generic success message
  - 400: VALIDATION_ERROR: Invalid email format
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.authService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this email is registered, a reset link has been sent.",
	})
}

/*
resetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Request:
  - Body: resetPasswordRequest (Token, Password)

Response:
  - 200: Success message
  - 400: VALIDATION_ERROR: Missing token or weak password
  - 404: NOT_FOUND: Invalid or expired token
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password updated successfully",
	})
}
