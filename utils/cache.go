package utils

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultCacheTTL = time.Minute

// Cache key prefixes for the read-through list caches.
const (
	CachePrefixPosts  = "cache:posts:"
	CachePrefixTravel = "cache:travel:"
	CachePrefixStats  = "cache:stats:"
)

const cacheGenPrefix = "cache:gen:"

func generationKey(prefix string) string {
	return cacheGenPrefix + strings.Trim(strings.TrimPrefix(prefix, "cache:"), ":")
}

// VersionedKey builds prefix + "v<generation>:" + suffix. InvalidateByPrefix bumps the
// generation, so a value computed before a write and stored after it lands under a key no
// reader asks for anymore. Call it before computing the value.
func VersionedKey(ctx context.Context, prefix, suffix string) string {
	gen := int64(0)
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := rc.Get(ctx, generationKey(prefix)).Int64()
		if err == nil {
			gen = n
		}
	}
	return prefix + "v" + strconv.FormatInt(gen, 10) + ":" + suffix
}

// CacheGetBytes returns cached bytes for a key from Redis.
func CacheGetBytes(ctx context.Context, key string) ([]byte, bool) {
	rc := GetRedis()
	if rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		return nil, false
	}
	return b, true
}

// CacheGetJSON decodes a cached JSON value into v.
func CacheGetJSON(ctx context.Context, key string, v interface{}) bool {
	b, ok := CacheGetBytes(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		Logger.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// CacheSetBytes stores bytes; ttl <= 0 uses the default.
func CacheSetBytes(ctx context.Context, key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// CacheSetJSON marshals v and stores JSON bytes.
func CacheSetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSetBytes(ctx, key, b, ttl)
}

// InvalidateByPrefix bumps the prefix generation and deletes keys that match the prefix using SCAN.
func InvalidateByPrefix(ctx context.Context, prefixes ...string) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	for _, prefix := range prefixes {
		if err := rc.Incr(ctx, generationKey(prefix)).Err(); err != nil {
			Logger.Warn("cache generation bump failed", zap.String("prefix", prefix), zap.Error(err))
		}
		var cursor uint64
		for i := 0; i < 10; i++ { // limit rounds to avoid long loops
			keys, cur, err := rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
			if err != nil {
				Logger.Warn("cache invalidate scan failed", zap.String("prefix", prefix), zap.Error(err))
				break
			}
			cursor = cur
			if len(keys) > 0 {
				pipe := rc.Pipeline()
				for _, k := range keys {
					pipe.Del(ctx, k)
				}
				_, _ = pipe.Exec(ctx)
			}
			if cursor == 0 {
				break
			}
		}
	}
}
