package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNew(t *testing.T) {
	h, err := New("", 0)
	require.NoError(t, err)
	assert.Equal(t, SchemeBcrypt, h.Scheme())

	_, err = New("md5", 0)
	require.Error(t, err)
}

func TestLegacyDigest(t *testing.T) {
	// sha256("pw")
	assert.Equal(t, "30c952fab122c3f9759f02a6d95c3758b246b4fee239957b2d4fee46e26170c4", LegacyDigest("pw"))
	assert.Equal(t, LegacyDigest("pw"), LegacyDigest("pw"))
	assert.True(t, IsLegacy(LegacyDigest("")))
	assert.False(t, IsLegacy("not-hex"))
}

func TestHasher_SHA256(t *testing.T) {
	h, err := New(SchemeSHA256, 0)
	require.NoError(t, err)

	digest, err := h.Hash("pw")
	require.NoError(t, err)
	assert.Equal(t, LegacyDigest("pw"), digest)

	assert.True(t, h.Matches("pw", digest))
	assert.False(t, h.Matches("wrong", digest))
}

func TestHasher_Bcrypt(t *testing.T) {
	h, err := New(SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	digest, err := h.Hash("pw")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", digest)

	again, err := h.Hash("pw")
	require.NoError(t, err)
	assert.NotEqual(t, digest, again, "bcrypt digests are salted")

	assert.True(t, h.Matches("pw", digest))
	assert.True(t, h.Matches("pw", again))
	assert.False(t, h.Matches("wrong", digest))
}

func TestHasher_BcryptTooLong(t *testing.T) {
	h, err := New(SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	_, err = h.Hash(strings.Repeat("x", MaxLength+1))
	require.ErrorIs(t, err, ErrTooLong)

	_, err = h.Hash(strings.Repeat("x", MaxLength))
	require.NoError(t, err)
}

func TestHasher_MatchesLegacyUnderBcrypt(t *testing.T) {
	h, err := New(SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, h.Matches("pw", LegacyDigest("pw")))
	assert.False(t, h.Matches("pw", LegacyDigest("other")))
}

func TestHasher_MalformedDigest(t *testing.T) {
	h, err := New(SchemeBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	assert.False(t, h.Matches("pw", ""))
	assert.False(t, h.Matches("pw", "pw"))
	assert.False(t, h.Matches("pw", "$2a$garbage"))
}
