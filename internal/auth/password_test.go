package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", hash)
	assert.True(t, CheckPassword("secret1", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestHashPasswordSalted(t *testing.T) {
	a, err := HashPassword("secret1")
	require.NoError(t, err)
	b, err := HashPassword("secret1")
	require.NoError(t, err)

	// Per-hash salt means two hashes of the same input differ.
	assert.NotEqual(t, a, b)
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	assert.False(t, CheckPassword("secret1", ""))
	assert.False(t, CheckPassword("secret1", "not-a-bcrypt-hash"))
}
