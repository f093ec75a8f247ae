package syncache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/syncache"
	pr "github.com/unkn0wn-root/syncache/provider"
	"github.com/unkn0wn-root/syncache/provider/lru"
	"github.com/unkn0wn-root/syncache/record"
)

var errBoom = errors.New("boom")

// recHooks records hook events as "name:arg".
type recHooks struct {
	syncache.NopHooks

	mu     sync.Mutex
	events []string
}

func (h *recHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recHooks) count(e string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, x := range h.events {
		if x == e {
			n++
		}
	}
	return n
}

func (h *recHooks) SelfHeal(key, reason string)         { h.add("self_heal:" + reason) }
func (h *recHooks) StaleFillSkipped(key string)         { h.add("stale_fill:" + key) }
func (h *recHooks) ProviderSetRejected(key string)      { h.add("set_rejected:" + key) }
func (h *recHooks) FetchFailed(locator string, _ error) { h.add("fetch_failed:" + locator) }
func (h *recHooks) InvalidateFailed(key string, _ error) {
	h.add("invalidate_failed:" + key)
}
func (h *recHooks) DuplicateCompletion(m syncache.Method) {
	h.add("duplicate:" + string(m))
}
func (h *recHooks) Coalesced(locator string, waiters int) {
	for range waiters {
		h.add("coalesced:" + locator)
	}
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// faultyProvider wraps a real provider and fails selected operations.
type faultyProvider struct {
	pr.Provider
	delErr error
	reject bool
}

func (p *faultyProvider) Del(ctx context.Context, key string) error {
	if p.delErr != nil {
		return p.delErr
	}
	return p.Provider.Del(ctx, key)
}

func (p *faultyProvider) Set(ctx context.Context, key string, v []byte, cost int64, ttl time.Duration) (bool, error) {
	if p.reject {
		return false, nil
	}
	return p.Provider.Set(ctx, key, v, cost, ttl)
}

func newCache(t *testing.T, opts syncache.Options) *syncache.Cache {
	t.Helper()

	c, err := syncache.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func entity(id string, fields map[string]any) *record.Entity {
	return record.NewEntity("tests", record.New(id, fields))
}

// outcome is one delivered completion.
type outcome struct {
	res syncache.Result
	err error
}

func collect(ch chan<- outcome) syncache.Completion {
	return func(res syncache.Result, _ any, err error) { ch <- outcome{res: res, err: err} }
}

// heldFetch captures backend completions so tests decide when they land.
type heldFetch struct {
	calls chan syncache.Completion
}

func newHeldFetch(n int) *heldFetch {
	return &heldFetch{calls: make(chan syncache.Completion, n)}
}

func (h *heldFetch) fetch(cb syncache.Completion) { h.calls <- cb }

func (h *heldFetch) next(t *testing.T) syncache.Completion {
	t.Helper()
	select {
	case cb := <-h.calls:
		return cb
	case <-time.After(time.Second):
		t.Fatal("backend was not invoked")
		return nil
	}
}

func newLRU(max int) *lru.Provider {
	return lru.New(lru.Config{MaxEntries: max, MaxAge: time.Minute})
}
