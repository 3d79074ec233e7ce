package users

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-crm/meridian/internal/auth"
)

// CachedLoader resolves user snapshots through the cache, loading from
// persistence on miss. Concurrent misses for the same user collapse
// into a single database read.
type CachedLoader struct {
	cache SnapshotCache
	repo  Repository
	group singleflight.Group
}

// NewCachedLoader constructs a CachedLoader.
func NewCachedLoader(cache SnapshotCache, repo Repository) *CachedLoader {
	return &CachedLoader{cache: cache, repo: repo}
}

// Load implements auth.SnapshotLoader.
func (l *CachedLoader) Load(ctx context.Context, userID int64) (auth.Snapshot, error) {
	if snap, ok := l.cache.Get(ctx, userID); ok {
		return snap, nil
	}
	v, err, _ := l.group.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		user, err := l.repo.GetUser(ctx, userID)
		if err != nil {
			return auth.Snapshot{}, err
		}
		snap := auth.SnapshotOf(user)
		l.cache.Put(ctx, userID, snap)
		return snap, nil
	})
	if err != nil {
		return auth.Snapshot{}, err
	}
	return v.(auth.Snapshot), nil
}

var _ auth.SnapshotLoader = (*CachedLoader)(nil)
