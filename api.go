package syncache

import (
	"context"

	"github.com/unkn0wn-root/syncache/record"
)

type Record = record.Record // alias so callers rarely need to import record

// Method is the kind of backend operation being synced.
type Method string

const (
	MethodCreate Method = "create"
	MethodRead   Method = "read"
	MethodUpdate Method = "update"
	MethodDelete Method = "delete"
)

// Model is the handle a caller syncs. URL is the record's addressable
// location and keys the in-flight registry; Attributes carries the identifier
// that decides whether the cache applies.
type Model interface {
	URL() string
	Attributes() record.Record
}

// Result is what a backend returns. Single-record operations set Record,
// collection reads set Records.
type Result struct {
	Record  *record.Record
	Records []record.Record
}

// One returns a Result holding a copy of r.
func One(r record.Record) Result {
	c := r.Clone()
	return Result{Record: &c}
}

// Many returns a Result holding copies of rs.
func Many(rs []record.Record) Result {
	out := make([]record.Record, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return Result{Records: out}
}

// Empty reports a result carrying no records at all.
func (r Result) Empty() bool { return r.Record == nil && r.Records == nil }

// Clone deep copies the result.
func (r Result) Clone() Result {
	var out Result
	if r.Record != nil {
		c := r.Record.Clone()
		out.Record = &c
	}
	if r.Records != nil {
		out.Records = Many(r.Records).Records
	}
	return out
}

// SyncOptions carries the caller continuations. Exactly one of Success or
// Error is invoked per operation. Extra holds any other caller options and is
// passed to the backend unmodified.
type SyncOptions struct {
	Success func(res Result, meta any)
	Error   func(err error, meta any)
	Extra   map[string]any
}

// SyncFunc performs a backend operation. Implementations must invoke exactly
// one of opts.Success or opts.Error, from any goroutine.
type SyncFunc func(ctx context.Context, method Method, m Model, opts SyncOptions)

// Completion receives the outcome of a controller step. meta is whatever the
// backend passed alongside its result.
type Completion func(res Result, meta any, err error)
