// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

// Package referral generates stable, human-shareable referral codes.
//
// # Usage
//
// Every account is assigned a referral code exactly once, at creation time.
// The code is derived from the account holder's display name (for
// shareability) plus a random suffix (for uniqueness), e.g. "ANA-7F3K9Q2M".
// Codes are never regenerated: repeat logins and profile updates keep the
// original value.
package referral

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// maxStemLength caps the name-derived prefix.
	maxStemLength = 8

	// suffixLength is the number of random characters appended to the stem.
	suffixLength = 8

	// fallbackStem is used when the display name yields no usable ASCII.
	fallbackStem = "STAY"
)

// suffixAlphabet excludes visually ambiguous characters (0/O, 1/I/L).
const suffixAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// nonAlphanumeric matches any character outside the uppercase code alphabet.
var nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]+`)

// NewCode derives a referral code from a display name.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD and strips combining marks (é → e).
// 2. Uppercases and removes everything outside [A-Z0-9].
// 3. Truncates the stem and appends a hyphen plus a random suffix.
//
// Names that normalize to nothing (e.g. fully non-Latin scripts) fall back
// to a generic stem so the code shape stays predictable.
func NewCode(displayName string) (string, error) {
	stem := normalizeStem(displayName)
	if stem == "" {
		stem = fallbackStem
	}

	suffix, err := randomSuffix(suffixLength)
	if err != nil {
		return "", err
	}

	return stem + "-" + suffix, nil
}

// normalizeStem reduces an arbitrary Unicode name to an uppercase ASCII stem.
func normalizeStem(name string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, name)

	// 2. Uppercase and strip anything outside the code alphabet
	result = strings.ToUpper(result)
	result = nonAlphanumeric.ReplaceAllString(result, "")

	// 3. Truncate to a shareable length
	if len(result) > maxStemLength {
		result = result[:maxStemLength]
	}

	return result
}

// randomSuffix returns n characters drawn uniformly from suffixAlphabet.
func randomSuffix(n int) (string, error) {
	alphabetSize := big.NewInt(int64(len(suffixAlphabet)))

	var builder strings.Builder
	builder.Grow(n)

	for i := 0; i < n; i++ {
		index, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		builder.WriteByte(suffixAlphabet[index.Int64()])
	}

	return builder.String(), nil
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
