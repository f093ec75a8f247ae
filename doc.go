// Package syncache is a process-local cache-aside layer for individually keyed
// records, placed in front of a persistence backend.
//
// Reads are served from a bounded, time-limited cache when possible. On a miss
// the first reader for a record fetches from the backend while concurrent
// readers of the same record queue behind it and receive the same outcome, so
// a burst of misses costs one backend read. Writes and deletes invalidate the
// cached entry; the cache is refilled lazily by the next read.
//
// Components:
//   - Store: bounded byte Provider (LRU + max age by default) holding codec
//     encoded copies of records, fenced by per-key generations.
//   - Cache: the read-coalescing controller and in-flight registry.
//   - CachingSync: wraps a backend SyncFunc and routes create/read/update/delete
//     through a Cache, resolving the caller exactly once.
//
// Keys:
//
//	<namespace>:<id>   - single records (namespace optional)
//
// Usage:
//
//	c, _ := syncache.New(syncache.Options{Name: "posts", Namespace: "post"})
//	sync := syncache.CachingSync(db.Sync, c)
//	res, err := syncache.Do(ctx, sync, syncache.MethodRead, record.NewEntity("posts", record.Record{ID: "1"}), nil)
package syncache
