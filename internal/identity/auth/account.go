// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

/*
Package auth implements the identity and session-authorization layer of Stayvia.

It defines the core domain entities (Account, ProviderLink) and the logic for
credential verification, federated identity resolution, session token
lifecycle, and account activity tracking.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no
transport or storage dependencies and encapsulate every business rule
related to who a Stayvia user is and what they may do.
*/
package auth

import (
	"strings"
	"time"

	"github.com/stayvia/stayvia/internal/platform/sec"
)

// # Auth Providers

// Identity providers an account can originate from or be linked to.
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// # Domain Entities

// Account represents a registered member of the Stayvia platform.
//
// # Identity Rules
//
//   - ID is a UUIDv7, assigned at creation, immutable for the account's lifetime.
//   - Email is unique among local-auth accounts and stored case-normalized.
//   - PasswordHash is empty for accounts created through a federated provider;
//     such accounts can never pass local credential verification.
//   - ReferralCode is generated exactly once and never regenerated.
type Account struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string     `json:"display_name"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	AuthProvider string     `json:"auth_provider"`
	Role         sec.Role   `json:"role"`
	IsActive     bool       `json:"is_active"`
	IsVerified   bool       `json:"is_verified"`
	ReferralCode string     `json:"referral_code"`
	Links        []ProviderLink `json:"-"` // Raw provider links are never exposed in API views.
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ProviderLink binds a federated identity (provider, subject id) to exactly
// one account. The pair is unique across the whole system, enforced by a
// database constraint rather than application-level locking.
type ProviderLink struct {
	Provider  string    `json:"provider"`
	SubjectID string    `json:"subject_id"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LinkFor returns the account's link for the given provider, or nil.
func (a *Account) LinkFor(provider string) *ProviderLink {
	for i := range a.Links {
		if a.Links[i].Provider == provider {
			return &a.Links[i]
		}
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address. Every email that
// enters the domain (registration, login, provider payloads) passes through
// this function, so "Ana@Example.COM" and "ana@example.com" address the same
// account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Field Identifiers

// Global field names for validation and identity mapping in the auth domain.
const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldRole        = "role"
	FieldToken       = "token"
	FieldAccessToken = "access_token"
	FieldTokenType   = "token_type"
	FieldExpiresIn   = "expires_in"
	FieldAccount     = "account"
	FieldMessage     = "message"
	FieldProvider    = "provider"
)
