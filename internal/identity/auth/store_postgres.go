// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

// PostgreSQL implementation of the auth repositories.
//
// # Architecture
//
// Repositories here are strictly separated from domain logic. They implement
// the domain-defined interfaces (e.g., [AccountRepository]) on top of the
// [pgxpool.Pool] connection manager.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, SQLSTATE 23505) are mapped to
// domain-friendly [apperr.AppError] values via the dberr bridge, so callers
// never see pgx internals. In particular, the uniqueness constraints on
// lower(email) and (provider, subjectid) are the arbiters of duplicate-create
// and duplicate-link races: the second concurrent writer loses with CONFLICT.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stayvia/stayvia/internal/platform/dberr"
)

// accountColumns is the canonical SELECT column list for identity.account.
const accountColumns = `
	id, email, passwordhash, displayname, avatarurl, authprovider, role,
	isactive, isverified, referralcode, lastloginat, lastactiveat,
	createdat, updatedat`

// PostgresAccountRepository implements the AccountRepository interface using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

/*
Create persists a new account and its provider links in one transaction.

Description: Inserts the account row and every link atomically. If a
concurrent request already claimed the email or the (provider, subjectid)
pair, the unique constraint fires and the whole transaction rolls back
with a CONFLICT error.

Parameters:
  - context: context.Context
  - account: *Account (Entity to persist, links included)

Returns:
  - error: CONFLICT on uniqueness violations, or connectivity errors
*/
func (repository *PostgresAccountRepository) Create(context context.Context, account *Account) error {
	const insertAccount = `
		INSERT INTO identity.account (
			id, email, passwordhash, displayname, avatarurl, authprovider, role,
			isactive, isverified, referralcode, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	const insertLink = `
		INSERT INTO identity.provider_link (provider, subjectid, accountid, createdat)
		VALUES ($1, $2, $3, $4)`

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	_, err = transaction.Exec(context, insertAccount,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.AvatarURL,
		account.AuthProvider,
		account.Role,
		account.IsActive,
		account.IsVerified,
		account.ReferralCode,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "An account with this email already exists")
	}

	for i := range account.Links {
		link := &account.Links[i]
		link.AccountID = account.ID
		if link.CreatedAt.IsZero() {
			link.CreatedAt = now
		}

		_, err = transaction.Exec(context, insertLink,
			link.Provider,
			link.SubjectID,
			link.AccountID,
			link.CreatedAt,
		)
		if err != nil {
			return dberr.Wrap(err, "This identity is already linked to an account")
		}
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_account_repo_commit_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves an account by its primary key, links included.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Account: Hydrated account entity
  - error: NOT_FOUND or execution errors
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*Account, error) {
	query := `SELECT` + accountColumns + `
		FROM identity.account
		WHERE id = $1`

	return repository.queryOne(context, query, id)
}

/*
FindByEmail retrieves an account by its normalized email, regardless of
auth provider.

Description: Used by the provider identity resolver to discover an existing
account that a federated login should attach to.

Parameters:
  - context: context.Context
  - email: string (already normalized)

Returns:
  - *Account: Hydrated account entity
  - error: NOT_FOUND or execution errors
*/
func (repository *PostgresAccountRepository) FindByEmail(context context.Context, email string) (*Account, error) {
	query := `SELECT` + accountColumns + `
		FROM identity.account
		WHERE lower(email) = $1`

	return repository.queryOne(context, query, email)
}

/*
FindLocalByEmail retrieves a local-auth account by its normalized email.

Description: Scoped to authprovider = 'local' so that credential
verification can never match a federated account. A federated account with
the same email is simply "not found" to this query.

Parameters:
  - context: context.Context
  - email: string (already normalized)

Returns:
  - *Account: Hydrated account entity
  - error: NOT_FOUND or execution errors
*/
func (repository *PostgresAccountRepository) FindLocalByEmail(context context.Context, email string) (*Account, error) {
	query := `SELECT` + accountColumns + `
		FROM identity.account
		WHERE lower(email) = $1 AND authprovider = 'local'`

	return repository.queryOne(context, query, email)
}

/*
FindByProviderLink resolves a federated (provider, subjectID) pair to its
linked account.

Parameters:
  - context: context.Context
  - provider: string
  - subjectID: string

Returns:
  - *Account: Hydrated account entity
  - error: NOT_FOUND when no link exists, or execution errors
*/
func (repository *PostgresAccountRepository) FindByProviderLink(context context.Context, provider, subjectID string) (*Account, error) {
	query := `SELECT` + accountColumns + `
		FROM identity.account a
		JOIN identity.provider_link l ON l.accountid = a.id
		WHERE l.provider = $1 AND l.subjectid = $2`

	return repository.queryOne(context, query, provider, subjectID)
}

/*
AddProviderLink attaches a federated identity to an existing account.

Description: A duplicate (provider, subjectid) pair from a concurrent
request loses to the primary-key constraint and surfaces as CONFLICT.

Parameters:
  - context: context.Context
  - link: *ProviderLink

Returns:
  - error: CONFLICT or execution errors
*/
func (repository *PostgresAccountRepository) AddProviderLink(context context.Context, link *ProviderLink) error {
	const query = `
		INSERT INTO identity.provider_link (provider, subjectid, accountid, createdat)
		VALUES ($1, $2, $3, $4)`

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		link.Provider,
		link.SubjectID,
		link.AccountID,
		link.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "This identity is already linked to an account")
	}

	return nil
}

/*
RecordLogin stamps last_login_at and last_active_at after a successful
authentication.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) RecordLogin(context context.Context, accountID string) error {
	const query = `
		UPDATE identity.account
		SET lastloginat = $2, lastactiveat = $2, updatedat = $2
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, accountID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_record_login_failed: %w", err)
	}

	return nil
}

/*
TouchActivity stamps last_active_at only.

Description: Logout and refresh call this. Tokens are stateless, so the
activity timestamp is the only server-side record these operations leave.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) TouchActivity(context context.Context, accountID string) error {
	const query = `UPDATE identity.account SET lastactiveat = $2 WHERE id = $1`

	_, err := repository.pool.Exec(context, query, accountID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_touch_activity_failed: %w", err)
	}

	return nil
}

/*
UpdatePassword replaces only the password hash for a specific account.

Parameters:
  - context: context.Context
  - accountID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) UpdatePassword(context context.Context, accountID, newHash string) error {
	const query = `
		UPDATE identity.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, accountID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
MarkVerified updates the account's status to isverified = true.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) MarkVerified(context context.Context, accountID string) error {
	const query = `UPDATE identity.account SET isverified = TRUE, updatedat = $2 WHERE id = $1`

	_, err := repository.pool.Exec(context, query, accountID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_mark_verified_failed: %w", err)
	}

	return nil
}

// queryOne scans a single account row and hydrates its provider links.
func (repository *PostgresAccountRepository) queryOne(context context.Context, query string, args ...any) (*Account, error) {
	account := &Account{}
	err := repository.pool.QueryRow(context, query, args...).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&account.AvatarURL,
		&account.AuthProvider,
		&account.Role,
		&account.IsActive,
		&account.IsVerified,
		&account.ReferralCode,
		&account.LastLoginAt,
		&account.LastActiveAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}

	if err := repository.hydrateLinks(context, account); err != nil {
		return nil, err
	}

	return account, nil
}

// hydrateLinks loads the account's provider links.
func (repository *PostgresAccountRepository) hydrateLinks(context context.Context, account *Account) error {
	const query = `
		SELECT provider, subjectid, accountid, createdat
		FROM identity.provider_link
		WHERE accountid = $1
		ORDER BY createdat`

	rows, err := repository.pool.Query(context, query, account.ID)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_hydrate_links_failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var link ProviderLink
		if err := rows.Scan(&link.Provider, &link.SubjectID, &link.AccountID, &link.CreatedAt); err != nil {
			return fmt.Errorf("postgres_account_repo_scan_link_failed: %w", err)
		}
		account.Links = append(account.Links, link)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres_account_repo_link_rows_failed: %w", err)
	}

	return nil
}
