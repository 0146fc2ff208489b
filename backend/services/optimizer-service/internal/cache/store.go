// Package cache keeps short-lived copies of upstream lookups.
package cache

import (
	"context"
)

// Store is a byte-oriented key/value cache with a store-wide TTL.
type Store interface {
	// Get returns the value under key; ok is false on a miss or an expired entry.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}
