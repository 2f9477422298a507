// Copyright (c) 2026 Stayvia. All rights reserved.
// Author: dev@stayvia.app

package referral

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode_ShapeAndStem(t *testing.T) {
	testCases := []struct {
		name         string
		displayName  string
		expectedStem string
	}{
		{
			name:         "plain ascii name",
			displayName:  "Ana",
			expectedStem: "ANA",
		},
		{
			name:         "accented name is transliterated",
			displayName:  "José Müller",
			expectedStem: "JOSEMULL",
		},
		{
			name:         "long name is truncated",
			displayName:  "Maximiliana Vandenberg",
			expectedStem: "MAXIMILI",
		},
		{
			name:         "non latin script falls back",
			displayName:  "山田太郎",
			expectedStem: "STAY",
		},
		{
			name:         "empty name falls back",
			displayName:  "",
			expectedStem: "STAY",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			code, err := NewCode(testCase.displayName)
			require.NoError(t, err)

			parts := strings.SplitN(code, "-", 2)
			require.Len(t, parts, 2)

			assert.Equal(t, testCase.expectedStem, parts[0])
			assert.Len(t, parts[1], suffixLength)

			for _, char := range parts[1] {
				assert.Contains(t, suffixAlphabet, string(char))
			}
		})
	}
}

func TestNewCode_SuffixesDiffer(t *testing.T) {
	first, err := NewCode("Ana")
	require.NoError(t, err)

	second, err := NewCode("Ana")
	require.NoError(t, err)

	// Same stem, independent random suffixes.
	assert.NotEqual(t, first, second)
}
