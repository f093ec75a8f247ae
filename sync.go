package syncache

import (
	"context"
	"fmt"
	"sync/atomic"
)

// CachingSync wraps a backend sync so reads go through c and writes keep c
// consistent. The returned function resolves exactly one of the caller's
// Success or Error per call. A nil c passes every operation straight through
// while keeping that guarantee.
//
// A read with no result and no error is reported as ErrNotFound, as is an
// empty create or update. An empty delete succeeds.
func CachingSync(wrapped SyncFunc, c *Cache) SyncFunc {
	hooks := Hooks(NopHooks{})
	if c != nil {
		hooks = c.hooks
	}

	return func(ctx context.Context, method Method, m Model, opts SyncOptions) {
		done := resolver(method, opts, hooks)
		backend := func(cb Completion) {
			wrapped(ctx, method, m, opts.redirect(cb))
		}

		switch method {
		case MethodCreate, MethodUpdate, MethodRead, MethodDelete:
		default:
			done(Result{}, nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method))
			return
		}
		if c == nil {
			backend(done)
			return
		}

		switch method {
		case MethodCreate, MethodUpdate:
			c.Write(ctx, method, m, backend, done)
		case MethodDelete:
			c.Remove(ctx, m, backend, done)
		case MethodRead:
			c.Read(ctx, m, backend, done)
		}
	}
}

// redirect keeps Extra and routes both continuations into cb.
func (o SyncOptions) redirect(cb Completion) SyncOptions {
	return SyncOptions{
		Success: func(res Result, meta any) { cb(res, meta, nil) },
		Error: func(err error, meta any) {
			if err == nil {
				err = ErrNotFound
			}
			cb(Result{}, meta, err)
		},
		Extra: o.Extra,
	}
}

func resolver(method Method, opts SyncOptions, hooks Hooks) Completion {
	var fired atomic.Bool
	return func(res Result, meta any, err error) {
		if !fired.CompareAndSwap(false, true) {
			hooks.DuplicateCompletion(method)
			return
		}
		if err == nil && res.Empty() && method != MethodDelete {
			err = ErrNotFound
		}
		if err != nil {
			if opts.Error != nil {
				opts.Error(err, meta)
			}
			return
		}
		if opts.Success != nil {
			opts.Success(res, meta)
		}
	}
}

// Do runs one operation through sync and waits for its outcome. Cancelling
// ctx stops the wait, not the operation.
func Do(ctx context.Context, sync SyncFunc, method Method, m Model, extra map[string]any) (Result, error) {
	type outcome struct {
		res Result
		err error
	}
	ch := make(chan outcome, 1)
	send := func(o outcome) {
		select {
		case ch <- o:
		default:
		}
	}

	sync(ctx, method, m, SyncOptions{
		Success: func(res Result, _ any) { send(outcome{res: res}) },
		Error:   func(err error, _ any) { send(outcome{err: err}) },
		Extra:   extra,
	})

	select {
	case o := <-ch:
		return o.res, o.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
