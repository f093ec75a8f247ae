package syncache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths, sometimes while holding its registry lock.
type Hooks interface {
	// Readers queued behind an in-flight fetch were resolved.
	// waiters excludes the reader that triggered the fetch.
	Coalesced(locator string, waiters int)

	// A coalesced backend read failed; every waiter got err.
	FetchFailed(locator string, err error)

	// Dropping the cache entry before a write or delete failed.
	InvalidateFailed(key string, err error)

	// A stored entry was dropped on read.
	// reason ∈ {"corrupt", "expired", "gen_mismatch", "decode"}
	SelfHeal(key, reason string)

	// A fetch result was not cached because the key was invalidated meanwhile.
	StaleFillSkipped(key string)

	// Provider returned ok=false on Set (admission/backpressure).
	ProviderSetRejected(key string)

	// An entry left the provider (capacity, age or delete). Only reported by
	// providers that surface evictions.
	Evicted(key string)

	// A backend invoked its continuation more than once; extra calls are dropped.
	DuplicateCompletion(method Method)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Coalesced(string, int)          {}
func (NopHooks) FetchFailed(string, error)      {}
func (NopHooks) InvalidateFailed(string, error) {}
func (NopHooks) SelfHeal(string, string)        {}
func (NopHooks) StaleFillSkipped(string)        {}
func (NopHooks) ProviderSetRejected(string)     {}
func (NopHooks) Evicted(string)                 {}
func (NopHooks) DuplicateCompletion(Method)     {}
