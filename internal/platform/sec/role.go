// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package sec

// # Account Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Unrestricted platform administration
	RoleAdmin Role = "admin"

	// Can list and manage properties they own
	RoleOwner Role = "owner"

	// Default role for standard registered users looking for a stay
	RoleSeeker Role = "seeker"
)

// ParseRole maps a raw string onto a known [Role].
// The second return value is false for unknown values.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleOwner:
		return RoleOwner, true
	case RoleSeeker:
		return RoleSeeker, true
	default:
		return "", false
	}
}

// In reports whether the role is a member of the given allow-list.
//
// Authorization is an explicit per-route allow-list, not a hierarchy:
// an admin is NOT implicitly allowed on owner-only routes unless the
// route says so.
func (r Role) In(allowed ...Role) bool {
	for _, candidate := range allowed {
		if r == candidate {
			return true
		}
	}
	return false
}
