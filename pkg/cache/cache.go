//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks

package cache

import (
	"context"
	"time"
)

// Cache is the read-model cache used for stock summaries and slotting
// classes. The database stays the source of truth.
type Cache interface {
	// Get unmarshals the value at key into dest.
	// found is false on a miss, and dest is left untouched.
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)

	// Set stores value as JSON. ttl 0 means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
}
