// Package provider defines the byte store behind the syncache Store.
//
// Implementations MUST be byte-for-byte transparent: Get and Peek return
// exactly the bytes previously passed to Set for a key. The store frames its
// own metadata (generation, stored-at time) inside those bytes and treats
// anything it cannot parse as corruption.
//
// Providers are process-local. The cache is never shared between processes.
package provider

import (
	"context"
	"time"
)

// Provider is a bounded byte store. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// A hit counts as a use for recency-based eviction.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Peek is Get without touching recency bookkeeping.
	Peek(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. Insert and overwrite both count as most recent use.
	// ttl <= 0 means the provider's own max age (if any) applies.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Missing keys are not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
