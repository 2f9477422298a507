// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package auth

import "time"

// # Authentication Constraints

const (
	// MinPasswordLength is the minimum accepted password length at
	// registration and reset.
	MinPasswordLength = 8

	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// VerificationTokenTTL is the duration an email verification token remains
	// valid. Long-lived (24 hours) as users might not check email immediately.
	VerificationTokenTTL = 24 * time.Hour

	// VerificationTokenLength is the byte length of the random verification token.
	VerificationTokenLength = 32

	// OAuthStateLength is the byte length of the anti-CSRF state nonce used
	// during a federated login round-trip.
	OAuthStateLength = 16
)
