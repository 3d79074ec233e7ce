package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetKeyPrefix = "reset:"

// ResetRegistry issues password reset tokens and enforces single use.
// Each issued token carries a unique JTI; the JTI is recorded in Redis
// with a TTL equal to the token's own expiry, and redemption removes it
// atomically so a token can never be replayed.
type ResetRegistry struct {
	codec  *TokenCodec
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewResetRegistry constructs the registry.
func NewResetRegistry(codec *TokenCodec, client *redis.Client, ttl time.Duration, logger *slog.Logger) *ResetRegistry {
	return &ResetRegistry{codec: codec, client: client, ttl: ttl, logger: logger}
}

// Issue creates a reset token for userID and records its JTI as pending.
func (r *ResetRegistry) Issue(ctx context.Context, userID int64) (string, error) {
	token, err := r.codec.Issue(userID, PurposeReset, r.ttl)
	if err != nil {
		return "", err
	}
	claims, err := r.codec.Verify(token, PurposeReset)
	if err != nil {
		return "", err
	}
	if err := r.client.Set(ctx, resetKeyPrefix+claims.ID, "1", r.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: record reset token: %w", err)
	}
	return token, nil
}

// Redeem consumes a reset token and returns its subject. The pending
// record is removed with an atomic GETDEL, so concurrent redemptions of
// the same token yield exactly one success; the rest observe a missing
// key and fail with ErrTokenAlreadyUsed.
func (r *ResetRegistry) Redeem(ctx context.Context, tokenString string) (int64, error) {
	claims, err := r.codec.Verify(tokenString, PurposeReset)
	if err != nil {
		return 0, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, err
	}
	if err := r.client.GetDel(ctx, resetKeyPrefix+claims.ID).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrTokenAlreadyUsed
		}
		// Single use cannot be guaranteed without the store, so the
		// redemption fails rather than degrading.
		return 0, fmt.Errorf("auth: consume reset token: %w", err)
	}
	return userID, nil
}

// Validate checks a reset token without consuming it, for the
// pre-flight endpoint shown before the reset form. When the pending
// store is unreachable the check degrades to signature and expiry only.
func (r *ResetRegistry) Validate(ctx context.Context, tokenString string) error {
	claims, err := r.codec.Verify(tokenString, PurposeReset)
	if err != nil {
		return err
	}
	n, err := r.client.Exists(ctx, resetKeyPrefix+claims.ID).Result()
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("reset token pending check degraded", slog.Any("error", err))
		}
		return nil
	}
	if n == 0 {
		return ErrTokenAlreadyUsed
	}
	return nil
}
