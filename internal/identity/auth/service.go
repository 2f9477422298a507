// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

/*
Core identity use cases: registration, credential verification, session
issuance, principal loading, and the password-reset / email-verification
round-trips.

Architecture:

  - Service: Orchestrates business logic over domain-defined repositories.
  - Tokens: Stateless HS256 session tokens (sec.TokenService); nothing is
    persisted per session, so there is no server-side revocation. Logout and
    refresh leave only activity timestamps behind.
  - Security: bcrypt password hashing with a configurable work factor.

This service is critical for security. Any changes to hashing, verification,
or resolver logic must be reviewed by the security team.
*/

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/stayvia/stayvia/internal/platform/apperr"
	"github.com/stayvia/stayvia/internal/platform/sec"
	"github.com/stayvia/stayvia/pkg/referral"
	"github.com/stayvia/stayvia/pkg/uuidv7"
)

// # Contracts & Types

// TokenIssuer defines the contract for minting session tokens.
type TokenIssuer interface {
	// Issue creates a signed session token for the given account id.
	Issue(accountID string) (string, error)

	// TTL returns the configured session lifetime.
	TTL() time.Duration
}

// Service implements the identity use cases.
type Service struct {
	accountRepository           AccountRepository
	resetTokenRepository        ResetTokenRepository
	verificationTokenRepository VerificationTokenRepository
	tokenIssuer                 TokenIssuer
	bcryptCost                  int
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	accountRepo AccountRepository,
	resetRepo ResetTokenRepository,
	verifyRepo VerificationTokenRepository,
	issuer TokenIssuer,
	bcryptCost int,
) *Service {
	return &Service{
		accountRepository:           accountRepo,
		resetTokenRepository:        resetRepo,
		verificationTokenRepository: verifyRepo,
		tokenIssuer:                 issuer,
		bcryptCost:                  bcryptCost,
	}
}

// AuthSession represents a successfully established session: a freshly
// issued bearer token plus the account it belongs to.
type AuthSession struct {
	Token   string
	Account *Account
}

// TokenTTL exposes the configured session lifetime for transport-layer
// responses (expires_in).
func (service *Service) TokenTTL() time.Duration {
	return service.tokenIssuer.TTL()
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new local account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     sec.Role // seeker or owner; defaults to seeker when empty.
}

/*
Register validates, hashes, and persists a brand new local account, then
opens its first session.

Description: The email is normalized before any lookup or write. Role
defaults to seeker and can be elevated only to owner at registration; admin
is never self-assignable. Local accounts start unverified until the email
verification round-trip completes.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *AuthSession: Token plus the created account
  - error: CONFLICT (email already registered) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*AuthSession, error) {
	email := NormalizeEmail(input.Email)

	role := input.Role
	if role == "" {
		role = sec.RoleSeeker
	}
	// Registration can never mint an administrator.
	if role == sec.RoleAdmin {
		role = sec.RoleSeeker
	}

	// Prevent storing plain-text passwords. The cost factor is configured
	// per deployment to balance security against CPU during signup spikes.
	hashedPassword, err := sec.HashPassword(input.Password, service.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	referralCode, err := referral.NewCode(input.Name)
	if err != nil {
		return nil, fmt.Errorf("auth_service_referral_code_failed: %w", err)
	}

	// Time-sortable ID to keep the PG primary-key index append-mostly.
	account := &Account{
		ID:           uuidv7.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  input.Name,
		AuthProvider: ProviderLocal,
		Role:         role,
		IsActive:     true,
		IsVerified:   false,
		ReferralCode: referralCode,
	}

	// Persist. A concurrent duplicate registration loses to the unique
	// email constraint and surfaces as CONFLICT.
	if err := service.accountRepository.Create(context, account); err != nil {
		return nil, err
	}

	// Generate and store a verification token in Redis as an async-ready side effect.
	token, err := sec.GenerateSecureToken(VerificationTokenLength)
	if err == nil {
		_ = service.verificationTokenRepository.Set(context, token, account.ID, VerificationTokenTTL)
		// TODO: hand the verification link to the notification service once it ships
	}

	return service.startSession(context, account)
}

// # Credential Verification

/*
Login verifies local credentials and opens a session.

Description: The lookup is scoped to local-auth accounts on the normalized
email. A missing account, a federated-only account (no password hash), and
a bcrypt mismatch all produce the same INVALID_CREDENTIALS error so callers
cannot probe which accounts exist. bcrypt performs the hash comparison in
constant time.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *AuthSession: Token plus the authenticated account
  - error: INVALID_CREDENTIALS, ACCOUNT_INACTIVE, or internal failures
*/
func (service *Service) Login(context context.Context, email, password string) (*AuthSession, error) {
	account, err := service.accountRepository.FindLocalByEmail(context, NormalizeEmail(email))
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return nil, apperr.InvalidCredentials()
		}
		return nil, err
	}

	// Federated accounts carry no hash; they can never pass local login.
	if account.PasswordHash == "" {
		return nil, apperr.InvalidCredentials()
	}

	if !sec.CheckPasswordHash(password, account.PasswordHash) {
		return nil, apperr.InvalidCredentials()
	}

	if !account.IsActive {
		return nil, apperr.AccountInactive()
	}

	return service.startSession(context, account)
}

// startSession stamps the login timestamps and issues a session token.
func (service *Service) startSession(context context.Context, account *Account) (*AuthSession, error) {
	if err := service.accountRepository.RecordLogin(context, account.ID); err != nil {
		return nil, fmt.Errorf("auth_service_record_login_failed: %w", err)
	}

	token, err := service.tokenIssuer.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_issue_failed: %w", err)
	}

	return &AuthSession{Token: token, Account: account}, nil
}

// # Principal Loading

/*
LoadPrincipal resolves a verified token subject into a request principal.

Description: Exactly one account lookup per authenticated request. The
check fails closed: an account that no longer exists, or whose is_active
flag has been cleared, yields ACCOUNT_INACTIVE even though the presented
token is cryptographically valid. Role and verification state are re-read
here so changes take effect on the next request, not at token expiry.

Parameters:
  - context: context.Context
  - accountID: string (token subject)

Returns:
  - *sec.Principal: Per-request identity, never cached
  - error: ACCOUNT_INACTIVE or storage failures
*/
func (service *Service) LoadPrincipal(context context.Context, accountID string) (*sec.Principal, error) {
	account, err := service.accountRepository.FindByID(context, accountID)
	if err != nil {
		if apperr.HasCode(err, "NOT_FOUND") {
			return nil, apperr.AccountInactive()
		}
		return nil, err
	}

	if !account.IsActive {
		return nil, apperr.AccountInactive()
	}

	return &sec.Principal{
		AccountID:  account.ID,
		Role:       account.Role,
		IsVerified: account.IsVerified,
	}, nil
}

// # Session Management

/*
CurrentAccount returns the full account view for an authenticated principal.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - *Account: Hydrated entity
  - error: NOT_FOUND or storage failures
*/
func (service *Service) CurrentAccount(context context.Context, accountID string) (*Account, error) {
	return service.accountRepository.FindByID(context, accountID)
}

/*
Refresh issues a fresh session token for an already-authenticated account.

Description: Tokens are stateless, so refresh simply mints a new token with
a full TTL; the old token stays valid until its own expiry (documented
limitation). The account's last_active_at is stamped.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - string: Newly issued token
  - error: Issuance or storage failures
*/
func (service *Service) Refresh(context context.Context, accountID string) (string, error) {
	if err := service.accountRepository.TouchActivity(context, accountID); err != nil {
		return "", fmt.Errorf("auth_service_refresh_touch_failed: %w", err)
	}

	token, err := service.tokenIssuer.Issue(accountID)
	if err != nil {
		return "", fmt.Errorf("auth_service_refresh_issue_failed: %w", err)
	}

	return token, nil
}

/*
Logout records the end of a session.

Description: There is no server-side token state to destroy; the bearer
token remains valid until expiry. Logout stamps last_active_at so account
activity reporting stays truthful, and the client discards its token.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - error: Storage failures
*/
func (service *Service) Logout(context context.Context, accountID string) error {
	if err := service.accountRepository.TouchActivity(context, accountID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Generates a secure token and saves it to Redis. Only
local-auth accounts participate: federated accounts have no password to
reset. A missing email returns success with no token so callers cannot
enumerate accounts.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Reset token (empty when the email is unknown)
  - error: Generation or storage errors
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) (string, error) {
	account, err := service.accountRepository.FindLocalByEmail(context, NormalizeEmail(email))
	if err != nil {
		return "", nil
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	if err := service.resetTokenRepository.Set(context, token, account.ID, ResetTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	return token, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the token, hashes the new password, and updates the
account. Outstanding session tokens cannot be revoked (stateless), so the
reset takes full effect as existing sessions expire.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: Invalid token or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	accountID, err := service.resetTokenRepository.Get(context, token)
	if err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword, service.bcryptCost)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.accountRepository.UpdatePassword(context, accountID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// Single-use token: remove after success.
	_ = service.resetTokenRepository.Delete(context, token)

	return nil
}

/*
VerifyEmail confirms an account's email address using a secure token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Invalid token or database errors
*/
func (service *Service) VerifyEmail(context context.Context, token string) error {
	accountID, err := service.verificationTokenRepository.Get(context, token)
	if err != nil {
		return err
	}

	if err := service.accountRepository.MarkVerified(context, accountID); err != nil {
		return fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	_ = service.verificationTokenRepository.Delete(context, token)

	return nil
}
