// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package auth

import (
	"context"

	"github.com/stayvia/stayvia/internal/platform/apperr"
	"github.com/stayvia/stayvia/internal/platform/sec"
	"github.com/stayvia/stayvia/pkg/referral"
	"github.com/stayvia/stayvia/pkg/uuidv7"
)

// ProviderIdentity is the normalized payload a federated provider reports
// about a user after a successful consent round-trip.
type ProviderIdentity struct {
	Provider    string // "google" or "facebook"
	SubjectID   string // Provider-scoped stable user id
	Email       string // May be empty if the user withheld it
	DisplayName string
	AvatarURL   string
}

/*
ResolveProviderIdentity maps a federated identity onto exactly one account.

Description: The precedence order is strict and performs at most one write:

 1. Provider-link lookup on (provider, subjectID). A hit is a repeat login:
    the account is returned unchanged and nothing is written.
 2. Email lookup on the normalized email. A hit means the person already has
    an account: if that account has no link for this provider yet, the new
    link is attached (the single write) and the SAME account is returned —
    a returning user who switches sign-in methods always lands on their
    existing account, never a duplicate. If the account already carries a
    link for this provider under a different subject id, the attempt is
    rejected with PROVIDER_CONFLICT; accounts are never merged and links
    are never silently overwritten.
 3. No account matches: a new one is created (the single write) with
    authProvider set to the provider, role seeker, verified immediately
    (the provider vouches for the email), a fresh referral code, and no
    password hash.

An identity without an email cannot be matched or created and fails with
MISSING_EMAIL before any lookup side effects.

Concurrent duplicate links or creates resolve via the database uniqueness
constraints and surface as CONFLICT.

Parameters:
  - context: context.Context
  - identity: ProviderIdentity

Returns:
  - *Account: The linked, attached, or newly created account
  - error: MISSING_EMAIL, PROVIDER_CONFLICT, CONFLICT, or storage failures
*/
func (service *Service) ResolveProviderIdentity(context context.Context, identity ProviderIdentity) (*Account, error) {

	// ── 1. Repeat login: provider link already known ──────────────────────
	account, err := service.accountRepository.FindByProviderLink(context, identity.Provider, identity.SubjectID)
	if err == nil {
		return account, nil
	}
	if !apperr.HasCode(err, "NOT_FOUND") {
		return nil, err
	}

	// Email is required from here on: both matching and creation key on it.
	email := NormalizeEmail(identity.Email)
	if email == "" {
		return nil, apperr.MissingEmail()
	}

	// ── 2. Known email: attach the link to the existing account ──────────
	account, err = service.accountRepository.FindByEmail(context, email)
	if err == nil {
		if account.LinkFor(identity.Provider) != nil {
			// Same provider, different subject (step 1 missed): refuse to
			// overwrite the existing link.
			return nil, apperr.ProviderConflict()
		}

		link := &ProviderLink{
			Provider:  identity.Provider,
			SubjectID: identity.SubjectID,
			AccountID: account.ID,
		}
		if err := service.accountRepository.AddProviderLink(context, link); err != nil {
			return nil, err
		}

		account.Links = append(account.Links, *link)
		return account, nil
	}
	if !apperr.HasCode(err, "NOT_FOUND") {
		return nil, err
	}

	// ── 3. First contact: create a fresh account ──────────────────────────
	referralCode, err := referral.NewCode(identity.DisplayName)
	if err != nil {
		return nil, err
	}

	account = &Account{
		ID:           uuidv7.New(),
		Email:        email,
		DisplayName:  identity.DisplayName,
		AvatarURL:    identity.AvatarURL,
		AuthProvider: identity.Provider,
		Role:         sec.RoleSeeker,
		IsActive:     true,
		IsVerified:   true, // the provider has already verified the email
		ReferralCode: referralCode,
		Links: []ProviderLink{{
			Provider:  identity.Provider,
			SubjectID: identity.SubjectID,
		}},
	}

	if err := service.accountRepository.Create(context, account); err != nil {
		return nil, err
	}

	return account, nil
}

/*
FederatedLogin resolves a provider identity and opens a session for the
resulting account.

Parameters:
  - context: context.Context
  - identity: ProviderIdentity

Returns:
  - *AuthSession: Token plus the resolved account
  - error: Resolver errors, ACCOUNT_INACTIVE, or issuance failures
*/
func (service *Service) FederatedLogin(context context.Context, identity ProviderIdentity) (*AuthSession, error) {
	account, err := service.ResolveProviderIdentity(context, identity)
	if err != nil {
		return nil, err
	}

	// Deactivated accounts cannot re-enter through a federated side door.
	if !account.IsActive {
		return nil, apperr.AccountInactive()
	}

	return service.startSession(context, account)
}
