package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret-passphrase")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-passphrase", hash)

	require.True(t, Verify("s3cret-passphrase", hash))
	require.False(t, Verify("wrong", hash))
	require.False(t, Verify("s3cret-passphrase", "not-a-hash"))
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("same input")
	require.NoError(t, err)
	second, err := Hash("same input")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, Verify("same input", first))
	require.True(t, Verify("same input", second))
}

func TestHashToken(t *testing.T) {
	a := HashToken("refresh-token-value")
	b := HashToken("refresh-token-value")
	c := HashToken("different")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 64) // hex-encoded SHA256
}
