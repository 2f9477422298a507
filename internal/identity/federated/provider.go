// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

/*
Package federated implements the OAuth 2.0 authorization-code clients for
Stayvia's external identity providers (Google, Facebook).

# Architecture

Each provider is a small hand-rolled HTTP client: consent URL construction,
code-for-token exchange, and a userinfo fetch, normalized into a single
[auth.ProviderIdentity]. The identity resolver in internal/identity/auth
owns everything after that point; this package never touches the database.

Providers satisfy [auth.FederatedProvider] and are handed to the auth HTTP
handler at wiring time.
*/
package federated

import (
	"fmt"
	"net/http"
	"time"

	"github.com/stayvia/stayvia/internal/identity/auth"
)

// httpTimeout bounds every outbound call to a provider.
const httpTimeout = 10 * time.Second

// Compile-time checks that both providers satisfy the auth contract.
var (
	_ auth.FederatedProvider = (*GoogleProvider)(nil)
	_ auth.FederatedProvider = (*FacebookProvider)(nil)
)

// newHTTPClient returns the shared outbound client configuration.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// exchangeError describes a failed provider round-trip for logging.
func exchangeError(provider, operation string, status int, detail string) error {
	return fmt.Errorf("federated: %s %s failed (status %d): %s", provider, operation, status, detail)
}
