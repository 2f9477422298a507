// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package sec

// Principal is the authenticated identity attached to a single in-flight
// request by the authentication middleware.
//
// # Lifetime
//
// A Principal is owned exclusively by its request. It is never cached,
// persisted, or shared across requests: role and activity state are
// re-read from the account store on every authenticated request.
type Principal struct {
	// AccountID is the durable account identifier (UUIDv7).
	AccountID string

	// Role is the account's role as loaded for this request.
	Role Role

	// IsVerified reports whether the account's email has been verified.
	IsVerified bool
}
