package passwords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher("pepper", bcrypt.MinCost)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotContains(t, hash, "secret123")

	assert.True(t, h.Verify(hash, "secret123"))
	assert.False(t, h.Verify(hash, "secret124"))
	assert.False(t, h.Verify(hash, ""))
}

func TestHasher_Salted(t *testing.T) {
	h := NewHasher("pepper", bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify(a, "same"))
	assert.True(t, h.Verify(b, "same"))
}

func TestHasher_PepperMatters(t *testing.T) {
	hash, err := NewHasher("one", bcrypt.MinCost).Hash("secret123")
	require.NoError(t, err)

	assert.False(t, NewHasher("two", bcrypt.MinCost).Verify(hash, "secret123"))
}

func TestHasher_LongPasswords(t *testing.T) {
	h := NewHasher("pepper", bcrypt.MinCost)
	long := strings.Repeat("a", 100)

	hash, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, long))
	assert.False(t, h.Verify(hash, long[:99]+"b"))
}

func TestHasher_Edges(t *testing.T) {
	h := NewHasher("pepper", 0)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)

	_, err := h.Hash("")
	assert.Error(t, err)

	assert.False(t, h.Verify("not-a-bcrypt-hash", "x"))
}
