package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *TokenCodec {
	c := NewTokenCodec("access-secret", "reset-secret")
	c.leeway = 0
	return c
}

func TestTokenRoundTrip(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.Issue(42, PurposeAccess, time.Minute)
	require.NoError(t, err)

	claims, err := codec.Verify(token, PurposeAccess)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenPurposeMismatch(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.Issue(42, PurposeVerify, time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	codec := newTestCodec()

	token, err := codec.Issue(42, PurposeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCrossSecret(t *testing.T) {
	codec := newTestCodec()

	// A reset token never verifies as an access token even if an
	// attacker relabels its purpose claim, because the secrets differ.
	token, err := codec.Issue(42, PurposeReset, time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	codec := newTestCodec()

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.Verify(tok, PurposeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestTokenForeignSignature(t *testing.T) {
	codec := newTestCodec()
	other := NewTokenCodec("different-secret", "reset-secret")

	token, err := other.Issue(42, PurposeAccess, time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(token, PurposeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
