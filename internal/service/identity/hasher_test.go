package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	hasher := BcryptHasher{}

	t.Run("hash and compare", func(t *testing.T) {
		hash, err := hasher.Hash("StrongEnoughPassword")

		require.NoError(t, err)
		assert.NotEqual(t, "StrongEnoughPassword", hash)
		assert.NoError(t, hasher.Compare(hash, "StrongEnoughPassword"))
		assert.Error(t, hasher.Compare(hash, "WrongPassword"))
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		first, err := hasher.Hash("StrongEnoughPassword")
		require.NoError(t, err)
		second, err := hasher.Hash("StrongEnoughPassword")
		require.NoError(t, err)

		assert.NotEqual(t, first, second, "bcrypt salts every hash")
	})

	t.Run("long password ok", func(t *testing.T) {
		// Raw bcrypt rejects inputs longer than 72 bytes, sha256 pre-hash must cover that
		long := strings.Repeat("a", 100)

		hash, err := hasher.Hash(long)

		require.NoError(t, err)
		assert.NoError(t, hasher.Compare(hash, long))
	})
}
