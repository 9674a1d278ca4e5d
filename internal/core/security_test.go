// AngelaMos | 2026
// security_test.go

package core

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse battery", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordTimingSafe_NilHash(t *testing.T) {
	ok, newHash, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, newHash)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	good, err := HashPassword("pw")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	tests := []struct {
		name string
		hash string
	}{
		{name: "not a hash", hash: "not-a-hash"},
		{name: "bcrypt", hash: "$2a$10$abcdefghijklmnopqrstuv"},
		{name: "wrong version", hash: strings.Replace(good, "v=19", "v=16", 1)},
		{name: "bad params", hash: strings.Replace(good, parts[3], "m=x", 1)},
		{name: "bad salt", hash: strings.Replace(good, parts[4], "!!!", 1)},
		{name: "empty key", hash: strings.TrimSuffix(good, parts[5])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyPassword("pw", tt.hash)
			assert.ErrorIs(t, err, ErrMalformedHash)
		})
	}
}

func TestVerifyPasswordTimingSafe_UpgradesOutdatedParams(t *testing.T) {
	old := argon2Params{memory: 32 * 1024, time: 2, threads: 2, keyLen: 32}
	salt := make([]byte, passwordSaltLen)
	stored := old.encode(salt, old.derive("correct horse battery", salt))

	ok, upgraded, err := VerifyPasswordTimingSafe("correct horse battery", &stored)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, upgraded)

	h, err := parsePasswordHash(upgraded)
	require.NoError(t, err)
	assert.Equal(t, passwordParams, h.params)

	ok, upgraded, err = VerifyPasswordTimingSafe("wrong", &stored)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, upgraded)

	current, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	ok, upgraded, err = VerifyPasswordTimingSafe("correct horse battery", &current)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, upgraded)
}

func TestGenerateResetCode_Range(t *testing.T) {
	seen := make(map[string]struct{})

	for range 500 {
		code, err := GenerateResetCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)

		seen[code] = struct{}{}
	}

	assert.Greater(t, len(seen), 400)
}

func TestResetCodeMatches(t *testing.T) {
	h := HashResetCode("123456")

	assert.Len(t, h, 64)
	assert.NotEqual(t, "123456", h)
	assert.True(t, ResetCodeMatches("123456", h))
	assert.False(t, ResetCodeMatches("654321", h))
	assert.False(t, ResetCodeMatches("123456", ""))
}
