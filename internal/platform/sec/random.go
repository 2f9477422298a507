// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateSecureToken returns a URL-safe random token with byteLength bytes
// of entropy. Used for password reset and email verification tokens as well
// as OAuth state nonces.
func GenerateSecureToken(byteLength int) (string, error) {
	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("sec: failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
