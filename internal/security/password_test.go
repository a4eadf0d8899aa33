package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, value)
	require.NoError(t, err)
	return ts
}

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, VerifyPassword("s3cret-pass", hash))
	assert.False(t, VerifyPassword("wrong-pass", hash))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	assert.False(t, VerifyPassword("anything", []byte("not-a-bcrypt-hash")))
}

func TestETagFromTime_Stable(t *testing.T) {
	t.Parallel()

	ts := mustParse(t, "2026-01-02T15:04:05.123456789Z")
	other := mustParse(t, "2026-01-02T15:04:05.123456790Z")

	assert.Equal(t, ETagFromTime(ts), ETagFromTime(ts))
	assert.NotEqual(t, ETagFromTime(ts), ETagFromTime(other))
	assert.Len(t, ETagFromTime(ts), 64)
}
