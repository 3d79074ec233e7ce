package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*ResetRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewResetRegistry(newTestCodec(), client, time.Minute, nil), mr
}

func TestResetIssueAndRedeem(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	token, err := registry.Issue(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, registry.Validate(ctx, token))

	userID, err := registry.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
}

func TestResetSingleUse(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	token, err := registry.Issue(ctx, 7)
	require.NoError(t, err)

	_, err = registry.Redeem(ctx, token)
	require.NoError(t, err)

	_, err = registry.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrTokenAlreadyUsed)

	err = registry.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenAlreadyUsed)
}

func TestResetConcurrentRedeem(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	token, err := registry.Issue(ctx, 7)
	require.NoError(t, err)

	const attempts = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		spent int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.Redeem(ctx, token)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, ErrTokenAlreadyUsed):
				spent++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, spent)
}

func TestResetExpiredToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	registry := NewResetRegistry(newTestCodec(), client, -time.Minute, nil)
	ctx := context.Background()

	token, err := registry.codec.Issue(7, PurposeReset, -time.Minute)
	require.NoError(t, err)

	_, err = registry.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestResetWrongPurposeToken(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()

	token, err := registry.codec.Issue(7, PurposeAccess, time.Minute)
	require.NoError(t, err)

	_, err = registry.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetValidateDegradesWithoutStore(t *testing.T) {
	registry, mr := newTestRegistry(t)
	ctx := context.Background()

	token, err := registry.Issue(ctx, 7)
	require.NoError(t, err)

	mr.Close()

	// Validation degrades to signature and expiry checks only.
	assert.NoError(t, registry.Validate(ctx, token))

	// Redemption must not degrade: single use cannot be enforced.
	_, err = registry.Redeem(ctx, token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenAlreadyUsed)
}
