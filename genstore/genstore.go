// Package genstore keeps a generation counter per cache key.
//
// Every invalidation bumps the key's generation. A reader snapshots the
// generation before it goes to the backend and may only populate the cache
// if the generation is still the same when the backend answers, so a fetch
// that raced a write can never re-cache the value the write replaced.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, key string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, key string) (uint64, error)
	// Cleanup forgets generations not bumped within retention.
	Cleanup(retention time.Duration) int
	// Close stops background work.
	Close(context.Context) error
}
