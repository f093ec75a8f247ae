// Package redis stores syncache records in Redis.
//
// Each record is one string key, prefix + ":" + locator, holding the codec
// encoding of the record. Collection reads scan the keys under a root.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/syncache"
	"github.com/unkn0wn-root/syncache/codec"
	"github.com/unkn0wn-root/syncache/record"
)

var (
	ErrNilClient   = errors.New("redis backend: client is nil")
	ErrNoIdentity  = errors.New("redis backend: record has no id")
	ErrEmptyPrefix = errors.New("redis backend: prefix is empty")
)

const scanCount = 256

type Backend struct {
	rdb    redis.UniversalClient
	prefix string
	codec  codec.Codec[record.Record]
	newID  func() string
}

type Option func(*Backend)

// WithCodec replaces the default msgpack codec.
func WithCodec(c codec.Codec[record.Record]) Option {
	return func(b *Backend) { b.codec = c }
}

func New(rdb redis.UniversalClient, prefix string, opts ...Option) (*Backend, error) {
	if rdb == nil {
		return nil, ErrNilClient
	}
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	b := &Backend{
		rdb:    rdb,
		prefix: prefix,
		codec:  codec.Msgpack[record.Record]{},
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Backend) key(locator string) string { return b.prefix + ":" + locator }

// Sync performs method on m against Redis and invokes exactly one of
// opts.Success or opts.Error.
func (b *Backend) Sync(ctx context.Context, method syncache.Method, m syncache.Model, opts syncache.SyncOptions) {
	res, err := b.do(ctx, method, m)
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

func (b *Backend) do(ctx context.Context, method syncache.Method, m syncache.Model) (syncache.Result, error) {
	attrs := m.Attributes()
	switch method {
	case syncache.MethodCreate:
		rec := attrs.Clone()
		locator := m.URL()
		if rec.IsNew() {
			rec.ID = b.newID()
			locator = strings.TrimRight(locator, "/") + "/" + rec.ID
		}
		return syncache.One(rec), b.put(ctx, locator, rec)

	case syncache.MethodUpdate:
		if attrs.IsNew() {
			return syncache.Result{}, ErrNoIdentity
		}
		return syncache.One(attrs), b.put(ctx, m.URL(), attrs)

	case syncache.MethodRead:
		if attrs.IsNew() {
			recs, err := b.list(ctx, m.URL())
			if err != nil {
				return syncache.Result{}, err
			}
			return syncache.Result{Records: recs}, nil
		}
		raw, err := b.rdb.Get(ctx, b.key(m.URL())).Bytes()
		if errors.Is(err, redis.Nil) {
			return syncache.Result{}, nil
		}
		if err != nil {
			return syncache.Result{}, err
		}
		rec, err := b.codec.Decode(raw)
		if err != nil {
			return syncache.Result{}, fmt.Errorf("redis backend: decode %q: %w", m.URL(), err)
		}
		return syncache.Result{Record: &rec}, nil

	case syncache.MethodDelete:
		if attrs.IsNew() {
			return syncache.Result{}, ErrNoIdentity
		}
		return syncache.Result{}, b.rdb.Del(ctx, b.key(m.URL())).Err()
	}
	return syncache.Result{}, syncache.ErrUnknownMethod
}

func (b *Backend) put(ctx context.Context, locator string, rec record.Record) error {
	raw, err := b.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("redis backend: encode %q: %w", locator, err)
	}
	return b.rdb.Set(ctx, b.key(locator), raw, 0).Err()
}

// list returns the records directly under root, ordered by key.
func (b *Backend) list(ctx context.Context, root string) ([]record.Record, error) {
	prefix := b.key(strings.TrimRight(root, "/") + "/")
	var keys []string
	iter := b.rdb.Scan(ctx, 0, escape(prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if !strings.Contains(strings.TrimPrefix(k, prefix), "/") {
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []record.Record{}, nil
	}
	sort.Strings(keys)

	vals, err := b.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // deleted between SCAN and MGET
		}
		rec, err := b.codec.Decode([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("redis backend: decode %q: %w", keys[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// escape quotes glob metacharacters for SCAN MATCH.
func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
