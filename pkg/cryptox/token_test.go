package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)
		_, err = GenerateToken(-4)
		require.Error(t, err)
	})

	t.Run("encodes without padding", func(t *testing.T) {
		token, err := GenerateToken(TokenSize256)
		require.NoError(t, err)
		require.Len(t, token, 43)
		require.NotContains(t, token, "=")
	})
}

func TestGenerateOpaqueToken(t *testing.T) {
	t.Parallel()

	t.Run("fixed length", func(t *testing.T) {
		token, err := GenerateOpaqueToken(AccessTokenLength)
		require.NoError(t, err)
		require.Len(t, token, AccessTokenLength)
	})

	t.Run("stays within alphabet", func(t *testing.T) {
		token, err := GenerateOpaqueToken(256)
		require.NoError(t, err)
		for _, c := range token {
			require.True(t, strings.ContainsRune(tokenAlphabet, c), "unexpected character %q", c)
		}
	})

	t.Run("no collisions across many issuances", func(t *testing.T) {
		seen := make(map[string]struct{}, 10000)
		for range 10000 {
			token, err := GenerateOpaqueToken(AccessTokenLength)
			require.NoError(t, err)
			_, dup := seen[token]
			require.False(t, dup, "token collision: %s", token)
			seen[token] = struct{}{}
		}
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	a := FingerprintToken("some-token")
	b := FingerprintToken("some-token")
	c := FingerprintToken("other-token")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 43)
}
