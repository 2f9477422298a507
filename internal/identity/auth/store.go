// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package auth

import (
	"context"
	"time"
)

// # Account Data Access

// AccountRepository defines the data access contract for accounts and their
// provider links.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID, links included.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Account: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		FindByEmail returns the account with the given normalized email,
		regardless of auth provider.

		Parameters:
		  - context: context.Context
		  - email: string (already normalized)

		Returns:
		  - *Account: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*Account, error)

	/*
		FindLocalByEmail returns the local-auth account with the given
		normalized email. Federated accounts never match, so credential
		verification cannot accidentally accept a password against them.

		Parameters:
		  - context: context.Context
		  - email: string (already normalized)

		Returns:
		  - *Account: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindLocalByEmail(context context.Context, email string) (*Account, error)

	/*
		FindByProviderLink returns the account linked to (provider, subjectID).

		Parameters:
		  - context: context.Context
		  - provider: string
		  - subjectID: string

		Returns:
		  - *Account: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByProviderLink(context context.Context, provider, subjectID string) (*Account, error)

	/*
		Create persists a brand-new account, including any provider links,
		in a single transaction. A uniqueness violation (duplicate email or
		duplicate provider link from a concurrent request) surfaces as a
		CONFLICT application error.

		Parameters:
		  - context: context.Context
		  - account: *Account

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, account *Account) error

	/*
		AddProviderLink attaches a federated identity to an existing account.
		A duplicate (provider, subjectID) pair surfaces as CONFLICT.

		Parameters:
		  - context: context.Context
		  - link: *ProviderLink

		Returns:
		  - error: Persistence failures
	*/
	AddProviderLink(context context.Context, link *ProviderLink) error

	/*
		RecordLogin stamps last_login_at and last_active_at for an account.

		Parameters:
		  - context: context.Context
		  - accountID: string

		Returns:
		  - error: Persistence failures
	*/
	RecordLogin(context context.Context, accountID string) error

	/*
		TouchActivity stamps last_active_at only. Used on logout and refresh;
		sessions are stateless so activity timestamps are the only
		server-side trace these operations leave.

		Parameters:
		  - context: context.Context
		  - accountID: string

		Returns:
		  - error: Persistence failures
	*/
	TouchActivity(context context.Context, accountID string) error

	/*
		UpdatePassword replaces only the account's password hash.

		Parameters:
		  - context: context.Context
		  - accountID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, accountID, newHash string) error

	/*
		MarkVerified updates the account's status to isverified = true.

		Parameters:
		  - context: context.Context
		  - accountID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkVerified(context context.Context, accountID string) error
}

// # Volatile Data Access

// ResetTokenRepository defines the contract for storing volatile password
// reset tokens.
type ResetTokenRepository interface {

	/*
		Set stores a reset token associated with an accountID for a limited duration.

		Parameters:
		  - context: context.Context
		  - token: string
		  - accountID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, accountID string, ttl time.Duration) error

	/*
		Get retrieves the accountID associated with a given reset token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: AccountID
		  - error: Retrieval failures
	*/
	Get(context context.Context, token string) (string, error)

	/*
		Delete removes a reset token after successful use.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}

// VerificationTokenRepository defines the contract for storing volatile
// email verification tokens.
type VerificationTokenRepository interface {

	/*
		Set stores a verification token associated with an accountID.

		Parameters:
		  - context: context.Context
		  - token: string
		  - accountID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, accountID string, ttl time.Duration) error

	/*
		Get retrieves the accountID associated with a given verification token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: AccountID
		  - error: Retrieval failures
	*/
	Get(context context.Context, token string) (string, error)

	/*
		Delete removes a verification token after successful use.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}
