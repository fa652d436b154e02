// Package cache provides the fast volatile tier of the weather cache. Reads
// and writes are best-effort: an unreachable backend degrades to misses and
// dropped writes, never to errors on the request path.
package cache

import (
	"context"
	"time"
)

// Store is a key-value cache with per-entry TTL. A false second return value
// from Get is a miss; absence is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Close() error
}
