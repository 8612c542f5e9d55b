// Package cache is the read-through lookup cache in front of the name store.
//
// Bindings are write-once, so a cached positive result never goes stale and the
// cache needs no invalidation. Negative results are never cached.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	txcontext "provenance/pkg/platform/tx"
)

const (
	DefaultTTL             = 24 * time.Hour
	defaultCleanupInterval = 30 * time.Minute
	redisKeyPrefix         = "names:"
)

// Tier is one cache level. Get misses on any failure.
type Tier interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Local is the per-process tier.
type Local struct {
	cache *gocache.Cache
}

func NewLocal(ttl time.Duration) *Local {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Local{cache: gocache.New(ttl, defaultCleanupInterval)}
}

func (l *Local) Get(_ context.Context, key string) (string, bool) {
	v, found := l.cache.Get(key)
	if !found {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (l *Local) Set(_ context.Context, key, value string) {
	l.cache.SetDefault(key, value)
}

// Redis is the shared tier. It fails open: errors are logged and reported as misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	v, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		r.logger.WarnContext(ctx, "name cache read failed", "key", key, "error", err)
		return "", false
	}
	return v, true
}

func (r *Redis) Set(ctx context.Context, key, value string) {
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "name cache write failed", "key", key, "error", err)
	}
}

// ReadThrough consults tiers in order, backfills faster tiers on a slower hit,
// and coalesces concurrent misses for one key into a single load.
type ReadThrough struct {
	tiers []Tier
	group singleflight.Group
}

func NewReadThrough(tiers ...Tier) *ReadThrough {
	return &ReadThrough{tiers: tiers}
}

// Get returns the cached value for key or calls load. An empty loaded value
// means "absent" and is returned without being cached. Calls made inside a
// unit of work bypass the cache so uncommitted reads are never shared.
func (r *ReadThrough) Get(ctx context.Context, key string, load func(ctx context.Context) (string, error)) (string, error) {
	if txcontext.InUnit(ctx) {
		return load(ctx)
	}

	for i, tier := range r.tiers {
		if v, ok := tier.Get(ctx, key); ok {
			for _, faster := range r.tiers[:i] {
				faster.Set(ctx, key, v)
			}
			return v, nil
		}
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil || v == "" {
			return v, err
		}
		for _, tier := range r.tiers {
			tier.Set(ctx, key, v)
		}
		return v, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
