// Package asynchook delivers syncache hook events on background workers.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery: 10, // sample logs: ~every 10th self-heal
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := syncache.New(syncache.Options{
//	    Namespace: "user",
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
//
// Events are dropped when the queue is full. Dropped counts them.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/syncache"
)

type Hooks struct {
	inner   syncache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ syncache.Hooks = (*Hooks)(nil)

func New(inner syncache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		h.mu.Lock()
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) Coalesced(l string, n int)       { h.try(func() { h.inner.Coalesced(l, n) }) }
func (h *Hooks) FetchFailed(l string, err error) { h.try(func() { h.inner.FetchFailed(l, err) }) }
func (h *Hooks) SelfHeal(k, r string)            { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) StaleFillSkipped(k string)       { h.try(func() { h.inner.StaleFillSkipped(k) }) }
func (h *Hooks) ProviderSetRejected(k string)    { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) Evicted(k string)                { h.try(func() { h.inner.Evicted(k) }) }
func (h *Hooks) InvalidateFailed(k string, err error) {
	h.try(func() { h.inner.InvalidateFailed(k, err) })
}
func (h *Hooks) DuplicateCompletion(m syncache.Method) {
	h.try(func() { h.inner.DuplicateCompletion(m) })
}
