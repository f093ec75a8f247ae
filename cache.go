package syncache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/syncache/record"
)

// Cache coalesces single-record reads and keeps the Store consistent with
// backend writes.
//
// At most one backend read is outstanding per locator. Reads that arrive
// while it is in flight are queued and receive the same outcome, in arrival
// order, once it completes. Writes and deletes invalidate the record's key
// before and after the backend call.
type Cache struct {
	name  string
	store *Store
	log   Logger
	hooks Hooks

	// bumped on every invalidation; collection fills are skipped when it moves
	writes atomic.Uint64

	mu       sync.Mutex
	inflight map[string]*flight // locator -> queued completions
}

type flight struct {
	waiters []Completion
}

// New builds a cache. Zero options are filled with defaults.
func New(opts Options) (*Cache, error) {
	s, err := NewStore(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{
		name:     s.name,
		store:    s,
		log:      s.log,
		hooks:    s.hooks,
		inflight: make(map[string]*flight),
	}, nil
}

func (c *Cache) Name() string  { return c.name }
func (c *Cache) Store() *Store { return c.store }

// Close releases the store.
func (c *Cache) Close(ctx context.Context) error { return c.store.Close(ctx) }

// Fetching reports whether a backend read for locator is outstanding.
func (c *Cache) Fetching(locator string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[locator]
	return ok
}

// Waiting returns how many reads are queued behind the fetch for locator.
func (c *Cache) Waiting(locator string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.inflight[locator]; ok {
		return len(f.waiters)
	}
	return 0
}

// Read resolves a read of m. A record with an identifier is served from the
// store when possible; otherwise fetch is invoked, or the read joins the
// fetch already in flight for m's locator. A model without an identifier is
// a collection read (see ReadMany).
//
// fetch must invoke its completion once. done is invoked exactly once.
func (c *Cache) Read(ctx context.Context, m Model, fetch func(Completion), done Completion) {
	id, ok := m.Attributes().Identity()
	if !ok {
		c.ReadMany(ctx, m, fetch, done)
		return
	}
	key := c.store.Key(id)
	locator := m.URL()

	rec, hit, err := c.store.Get(ctx, key)
	if err != nil {
		done(Result{}, nil, err)
		return
	}
	if hit {
		done(Result{Record: &rec}, nil, nil)
		return
	}

	c.mu.Lock()
	if f, ok := c.inflight[locator]; ok {
		f.waiters = append(f.waiters, done)
		c.mu.Unlock()
		c.log.Debug("read coalesced", Fields{"name": c.name, "locator": locator})
		return
	}
	// A fetch may have filled the store and drained since the first lookup.
	rec, hit, err = c.store.Get(ctx, key)
	if err != nil || hit {
		c.mu.Unlock()
		if err != nil {
			done(Result{}, nil, err)
		} else {
			done(Result{Record: &rec}, nil, nil)
		}
		return
	}
	observed := c.store.SnapshotGen(ctx, key)
	c.inflight[locator] = &flight{}
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	fetch(c.once(MethodRead, func(res Result, meta any, err error) {
		c.settle(ctx, locator, key, observed, res, meta, err, done)
	}))
}

// settle caches a successful fetch, then hands the outcome to the reader
// that started it and to every reader queued behind it. Readers get the
// record in the store's normalized shape, equal to what a later hit returns.
// The flight is only removed once the queue is empty, so readers arriving
// during the drain get the same outcome.
func (c *Cache) settle(ctx context.Context, locator, key string, observed uint64, res Result, meta any, err error, first Completion) {
	if err == nil && res.Record == nil {
		err = ErrNotFound
	}
	if err == nil {
		rec, _, serr := c.store.fill(ctx, key, *res.Record, observed)
		if serr != nil {
			c.log.Warn("cache fill failed", Fields{"name": c.name, "key": key, "err": serr})
		}
		res = Result{Record: &rec}
	} else {
		res = Result{}
		c.log.Debug("fetch failed", Fields{"name": c.name, "locator": locator, "err": err})
		c.hooks.FetchFailed(locator, err)
	}

	first(res.Clone(), meta, err)

	drained := 0
	for {
		c.mu.Lock()
		f := c.inflight[locator]
		batch := f.waiters
		f.waiters = nil
		if len(batch) == 0 {
			delete(c.inflight, locator)
			c.mu.Unlock()
			break
		}
		c.mu.Unlock()

		for _, w := range batch {
			w(res.Clone(), meta, err)
		}
		drained += len(batch)
	}
	if drained > 0 {
		c.hooks.Coalesced(locator, drained)
	}
}

// ReadMany passes a collection read through to fetch and caches every
// returned record that has an identifier and is not cached yet. Nothing is
// cached if an invalidation happened while the read was in flight. Returned
// records are normalized like single reads.
func (c *Cache) ReadMany(ctx context.Context, m Model, fetch func(Completion), done Completion) {
	epoch := c.writes.Load()
	ctx = context.WithoutCancel(ctx)
	fetch(c.once(MethodRead, func(res Result, meta any, err error) {
		if err == nil {
			res = c.normalize(res)
			if c.writes.Load() == epoch {
				c.fillMany(ctx, res)
			} else {
				c.hooks.StaleFillSkipped(m.URL())
			}
		}
		done(res, meta, err)
	}))
}

// normalize returns res with every record in the store's shape. Records the
// codec cannot handle are copied unchanged.
func (c *Cache) normalize(res Result) Result {
	norm := func(r record.Record) record.Record {
		n, err := c.store.Normalize(r)
		if err != nil {
			c.log.Debug("normalize failed", Fields{"name": c.name, "id": r.ID, "err": err})
			return r.Clone()
		}
		return n
	}
	var out Result
	if res.Record != nil {
		r := norm(*res.Record)
		out.Record = &r
	}
	if res.Records != nil {
		out.Records = make([]record.Record, len(res.Records))
		for i, r := range res.Records {
			out.Records[i] = norm(r)
		}
	}
	return out
}

func (c *Cache) fillMany(ctx context.Context, res Result) {
	recs := res.Records
	if res.Record != nil {
		recs = append([]record.Record{*res.Record}, recs...)
	}
	for _, r := range recs {
		id, ok := r.Identity()
		if !ok {
			continue
		}
		key := c.store.Key(id)
		has, err := c.store.Has(ctx, key)
		if err != nil {
			c.log.Warn("cache has failed", Fields{"name": c.name, "key": key, "err": err})
			continue
		}
		if has {
			continue
		}
		if _, err := c.store.Set(ctx, key, r); err != nil {
			c.log.Warn("cache fill failed", Fields{"name": c.name, "key": key, "err": err})
		}
	}
}

// Write runs a create or update through write. The record's key, if it has
// one, is invalidated before write is invoked and again after it completes.
// The store is never populated from a write result.
func (c *Cache) Write(ctx context.Context, method Method, m Model, write func(Completion), done Completion) {
	key, keyed := c.keyOf(m)
	if keyed {
		// A stale entry must not outlive the write; the second invalidation
		// below still runs.
		_ = c.invalidate(ctx, key)
	}
	ctx = context.WithoutCancel(ctx)
	write(c.once(method, func(res Result, meta any, err error) {
		if keyed {
			_ = c.invalidate(ctx, key)
		}
		done(res, meta, err)
	}))
}

// Remove runs a delete through del. If the record's entry cannot be
// invalidated the delete is not attempted and done receives the error.
func (c *Cache) Remove(ctx context.Context, m Model, del func(Completion), done Completion) {
	key, keyed := c.keyOf(m)
	if keyed {
		if err := c.invalidate(ctx, key); err != nil {
			done(Result{}, nil, err)
			return
		}
	}
	ctx = context.WithoutCancel(ctx)
	del(c.once(MethodDelete, func(res Result, meta any, err error) {
		if keyed {
			_ = c.invalidate(ctx, key)
		}
		done(res, meta, err)
	}))
}

func (c *Cache) keyOf(m Model) (string, bool) {
	id, ok := m.Attributes().Identity()
	if !ok {
		return "", false
	}
	return c.store.Key(id), true
}

func (c *Cache) invalidate(ctx context.Context, key string) error {
	c.writes.Add(1)
	if err := c.store.Delete(ctx, key); err != nil {
		c.hooks.InvalidateFailed(key, err)
		return err
	}
	return nil
}

// once wraps a backend completion so only its first call gets through.
func (c *Cache) once(method Method, fn Completion) Completion {
	var fired atomic.Bool
	return func(res Result, meta any, err error) {
		if !fired.CompareAndSwap(false, true) {
			c.log.Warn("duplicate completion dropped", Fields{"name": c.name, "method": string(method)})
			c.hooks.DuplicateCompletion(method)
			return
		}
		fn(res, meta, err)
	}
}
