// Package memory is an in-process backend for syncache.
//
// Records live in a map keyed by locator. It is the reference SyncFunc used
// in tests and examples, and a stand-in for a real store during development.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/syncache"
	"github.com/unkn0wn-root/syncache/record"
)

// ErrNoIdentity is returned for an update or delete of a record without an
// identifier.
var ErrNoIdentity = errors.New("memory: record has no id")

type Option func(*DB)

// WithLatency delays every completion by d and delivers it from another
// goroutine.
func WithLatency(d time.Duration) Option {
	return func(db *DB) { db.latency = d }
}

// WithIDs replaces the uuid generator used for new records.
func WithIDs(next func() string) Option {
	return func(db *DB) { db.newID = next }
}

type DB struct {
	latency time.Duration
	newID   func() string

	mu      sync.Mutex
	records map[string]record.Record // locator -> record
	calls   map[syncache.Method]int
	fail    map[syncache.Method]error
}

func New(opts ...Option) *DB {
	db := &DB{
		newID:   uuid.NewString,
		records: make(map[string]record.Record),
		calls:   make(map[syncache.Method]int),
		fail:    make(map[syncache.Method]error),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

var _ syncache.SyncFunc = (*DB)(nil).Sync

// Sync performs method on m and invokes exactly one of opts.Success or
// opts.Error.
func (db *DB) Sync(ctx context.Context, method syncache.Method, m syncache.Model, opts syncache.SyncOptions) {
	db.mu.Lock()
	db.calls[method]++
	db.mu.Unlock()

	run := func() {
		res, err := db.apply(method, m)
		if err != nil {
			if opts.Error != nil {
				opts.Error(err, nil)
			}
			return
		}
		if opts.Success != nil {
			opts.Success(res, nil)
		}
	}

	if db.latency <= 0 {
		run()
		return
	}
	go func() {
		t := time.NewTimer(db.latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
		run()
	}()
}

func (db *DB) apply(method syncache.Method, m syncache.Model) (syncache.Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err, ok := db.fail[method]; ok {
		delete(db.fail, method)
		return syncache.Result{}, err
	}

	attrs := m.Attributes()
	locator := m.URL()

	switch method {
	case syncache.MethodCreate:
		rec := attrs.Clone()
		if rec.IsNew() {
			rec.ID = db.newID()
			locator = strings.TrimRight(locator, "/") + "/" + rec.ID
		}
		db.records[locator] = rec
		return syncache.One(rec), nil

	case syncache.MethodUpdate:
		if attrs.IsNew() {
			return syncache.Result{}, ErrNoIdentity
		}
		db.records[locator] = attrs.Clone()
		return syncache.One(attrs), nil

	case syncache.MethodRead:
		if attrs.IsNew() {
			return syncache.Many(db.list(locator)), nil
		}
		rec, ok := db.records[locator]
		if !ok {
			// Neither result nor error; the caller decides what absent means.
			return syncache.Result{}, nil
		}
		return syncache.One(rec), nil

	case syncache.MethodDelete:
		if attrs.IsNew() {
			return syncache.Result{}, ErrNoIdentity
		}
		delete(db.records, locator)
		return syncache.Result{}, nil
	}
	return syncache.Result{}, syncache.ErrUnknownMethod
}

// list returns the records directly under root, ordered by locator.
func (db *DB) list(root string) []record.Record {
	prefix := strings.TrimRight(root, "/") + "/"
	locs := make([]string, 0, len(db.records))
	for loc := range db.records {
		if rest, ok := strings.CutPrefix(loc, prefix); ok && !strings.Contains(rest, "/") {
			locs = append(locs, loc)
		}
	}
	sort.Strings(locs)
	out := make([]record.Record, 0, len(locs))
	for _, loc := range locs {
		out = append(out, db.records[loc])
	}
	return out
}

// Put stores rec under root without counting as a call.
func (db *DB) Put(root string, rec record.Record) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.records[record.NewEntity(root, rec).URL()] = rec.Clone()
}

// Lookup returns a copy of the record at locator.
func (db *DB) Lookup(locator string) (record.Record, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	rec, ok := db.records[locator]
	return rec.Clone(), ok
}

// FailNext makes the next call of method fail with err.
func (db *DB) FailNext(method syncache.Method, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.fail[method] = err
}

// Calls returns how many times method was synced.
func (db *DB) Calls(method syncache.Method) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls[method]
}

func (db *DB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.records)
}
