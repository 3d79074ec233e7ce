package users

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-crm/meridian/internal/auth"
)

// SnapshotCache stores safe user projections with a TTL. Reads and
// writes are best-effort: an unreachable backend reads as a miss so
// callers fall through to persistence.
type SnapshotCache interface {
	Get(ctx context.Context, userID int64) (auth.Snapshot, bool)
	Put(ctx context.Context, userID int64, snap auth.Snapshot)
	Invalidate(ctx context.Context, userID int64) error
}

func snapshotKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// RedisSnapshotCache is the Redis-backed cache used in production.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisSnapshotCache constructs the cache helper.
func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisSnapshotCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSnapshotCache{client: client, ttl: ttl, logger: logger}
}

// Get loads a cached snapshot. Backend errors and malformed payloads
// are logged and read as misses.
func (c *RedisSnapshotCache) Get(ctx context.Context, userID int64) (auth.Snapshot, bool) {
	payload, err := c.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("snapshot cache get", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return auth.Snapshot{}, false
	}
	var snap auth.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		c.logger.Warn("snapshot cache payload", slog.Int64("user_id", userID), slog.Any("error", err))
		_ = c.client.Del(ctx, snapshotKey(userID)).Err()
		return auth.Snapshot{}, false
	}
	return snap, true
}

// Put stores a snapshot with the configured TTL; failures are logged.
func (c *RedisSnapshotCache) Put(ctx context.Context, userID int64, snap auth.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		c.logger.Warn("snapshot cache marshal", slog.Int64("user_id", userID), slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, snapshotKey(userID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("snapshot cache put", slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

// Invalidate deletes the snapshot. It runs synchronously on mutation
// paths so a response is never sent while a stale entry survives.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, snapshotKey(userID)).Err()
}

// NoopSnapshotCache disables caching. The orchestration code is
// identical with or without a live cache backend.
type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(ctx context.Context, userID int64) (auth.Snapshot, bool) {
	return auth.Snapshot{}, false
}

func (NoopSnapshotCache) Put(ctx context.Context, userID int64, snap auth.Snapshot) {}

func (NoopSnapshotCache) Invalidate(ctx context.Context, userID int64) error { return nil }

var (
	_ SnapshotCache = (*RedisSnapshotCache)(nil)
	_ SnapshotCache = NoopSnapshotCache{}
)
