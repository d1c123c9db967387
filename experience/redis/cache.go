// Package redis layers a Redis-backed fast-path cache in front of a
// durable experience.Store ( supplemental domain-stack
// wiring), grounded on convention of injecting a shared
// *redis.Client through an Options/Config struct (registry.Config.Redis,
// pulse.Options.Redis) and on features/stream/pulse's pattern of
// layering a fast transient store (Pulse streams) in front of durable
// persistence.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/experience"
)

// Cache is the minimal Redis surface CachingStore needs, kept as an
// interface (mirroring clientsmongo.Client /
// clientspulse.Client SPI-wrapper convention) so tests can substitute a
// fake instead of a live Redis server.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// client adapts *redis.Client to Cache.
type client struct {
	rdb *goredis.Client
}

// New wraps rdb as a Cache.
func New(rdb *goredis.Client) Cache {
	return &client{rdb: rdb}
}

func (c *client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// DefaultTTL is used when Config.TTLSeconds is zero. A negative
// TTLSeconds (mirroring experience.in_memory.ttl_seconds = -1)
// means "never expire".
const DefaultTTL = 5 * time.Minute

// Config configures a CachingStore.
type Config struct {
	// TTLSeconds is the cache entry lifetime. 0 selects DefaultTTL; a
	// negative value means entries never expire (
	// experience.in_memory.ttl_seconds = -1).
	TTLSeconds int
}

func (c Config) ttl() time.Duration {
	switch {
	case c.TTLSeconds < 0:
		return 0
	case c.TTLSeconds == 0:
		return DefaultTTL
	default:
		return time.Duration(c.TTLSeconds) * time.Second
	}
}

// CachingStore wraps a durable experience.Store (typically
// experience/mongo.Repository) with a Redis-backed fast path: the
// subset of a Query's results whose fast_intent_config.enabled is true
// are cached under a scope+text key so the Fast-Intent Matcher's
// repeated lookups for the same intent skip the durable store.
type CachingStore struct {
	inner experience.Store
	cache Cache
	ttl time.Duration
}

// NewCachingStore constructs a CachingStore fronting inner with cache.
func NewCachingStore(inner experience.Store, cache Cache, cfg Config) *CachingStore {
	return &CachingStore{inner: inner, cache: cache, ttl: cfg.ttl()}
}

func (s *CachingStore) Create(ctx context.Context, exp experience.Experience) (experience.Experience, error) {
	return s.inner.Create(ctx, exp)
}

func (s *CachingStore) Get(ctx context.Context, id string) (experience.Experience, error) {
	return s.inner.Get(ctx, id)
}

func (s *CachingStore) Update(ctx context.Context, exp experience.Experience) (experience.Experience, error) {
	return s.inner.Update(ctx, exp)
}

func (s *CachingStore) Delete(ctx context.Context, id string) error {
	return s.inner.Delete(ctx, id)
}

// Query delegates to the inner Store and, when q.Text is set, primes
// the fast-intent cache entry for this scope+text key; it never reads
// the cache. The
// full, ranked result from the inner Store is always what's returned —
// the cache only accelerates a subsequent FastIntentCandidates lookup
// for the same intent, it never substitutes for Query's own ranking.
func (s *CachingStore) Query(ctx context.Context, q experience.Query, qctx experience.QueryContext) ([]experience.Experience, error) {
	results, err := s.inner.Query(ctx, q, qctx)
	if err != nil {
		return nil, err
	}
	if q.Text != "" {
		s.primeCache(ctx, cacheKey(q.Scopes, q.Text), results)
	}
	return results, nil
}

// FastIntentCandidates returns the fast-intent-eligible experiences for
// (scopes, text), serving from the Redis cache when present and falling
// back to Query + cache population on a miss.
func (s *CachingStore) FastIntentCandidates(ctx context.Context, scopes []experience.Scope, text string) ([]experience.Experience, error) {
	key := cacheKey(scopes, text)
	if cached, ok, err := s.readCache(ctx, key); err == nil && ok {
		return cached, nil
	}

	results, err := s.inner.Query(ctx, experience.Query{Scopes: scopes, Text: text}, experience.QueryContext{})
	if err != nil {
		return nil, err
	}
	eligible := fastIntentEligible(results)
	s.primeCache(ctx, key, eligible)
	return eligible, nil
}

func (s *CachingStore) primeCache(ctx context.Context, key string, results []experience.Experience) {
	eligible := fastIntentEligible(results)
	payload, err := json.Marshal(eligible)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, key, string(payload), s.ttl)
}

func (s *CachingStore) readCache(ctx context.Context, key string) ([]experience.Experience, bool, error) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.ExternalFailure, "experience/redis: cache read failed", err)
	}
	if !ok {
		return nil, false, nil
	}
	var out []experience.Experience
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false, nil
	}
	return out, true, nil
}

func fastIntentEligible(exps []experience.Experience) []experience.Experience {
	var out []experience.Experience
	for _, exp := range exps {
		if exp.FastIntent != nil && exp.FastIntent.Enabled {
			out = append(out, exp)
		}
	}
	return out
}

func cacheKey(scopes []experience.Scope, text string) string {
	key := "fastintent:"
	for _, sc := range scopes {
		key += string(sc) + ","
	}
	key += ":" + text
	return key
}
