// Package lru is the default syncache provider: a fixed-capacity store with
// least-recently-used eviction and a per-entry max age, backed by
// hashicorp/golang-lru/v2.
//
// Age is checked lazily when an entry is read. There is no background
// janitor, so a provider holds no goroutine and Close only purges.
package lru

import (
	"context"
	"time"

	hlru "github.com/hashicorp/golang-lru/v2"

	pr "github.com/unkn0wn-root/syncache/provider"
)

const (
	DefaultMaxEntries = 1000
	DefaultMaxAge     = time.Minute
)

type Config struct {
	MaxEntries int           // 0 => DefaultMaxEntries
	MaxAge     time.Duration // 0 => DefaultMaxAge; < 0 => entries never age out
	// OnEvict is called for capacity and age evictions as well as deletes.
	// It runs after the LRU lock is released.
	OnEvict func(key string)
	// Clock for age checks; nil => time.Now.
	Clock func() time.Time
}

type entry struct {
	value   []byte
	expires time.Time // zero => never
}

type Provider struct {
	c      *hlru.Cache[string, entry]
	maxAge time.Duration
	now    func() time.Time
}

var _ pr.Provider = (*Provider)(nil)

func New(cfg Config) *Provider {
	size := cfg.MaxEntries
	if size <= 0 {
		size = DefaultMaxEntries
	}
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	var onEvict func(string, entry)
	if cfg.OnEvict != nil {
		onEvict = func(key string, _ entry) { cfg.OnEvict(key) }
	}
	// only fails for size <= 0
	c, _ := hlru.NewWithEvict[string, entry](size, onEvict)
	return &Provider{c: c, maxAge: maxAge, now: now}
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := p.c.Get(key)
	if !ok || p.expired(key, e) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (p *Provider) Peek(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := p.c.Peek(key)
	if !ok || p.expired(key, e) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set ignores cost and ttl; capacity is counted in entries and age is the
// configured MaxAge from insertion.
func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	var exp time.Time
	if p.maxAge > 0 {
		exp = p.now().Add(p.maxAge)
	}
	p.c.Add(key, entry{value: value, expires: exp})
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Remove(key)
	return nil
}

// Len reports resident entries, including expired ones not read since.
func (p *Provider) Len() int { return p.c.Len() }

// Keys returns keys from oldest to newest use.
func (p *Provider) Keys() []string { return p.c.Keys() }

func (p *Provider) Close(_ context.Context) error {
	p.c.Purge()
	return nil
}

// expired drops e if it is past its max age.
func (p *Provider) expired(key string, e entry) bool {
	if e.expires.IsZero() || !p.now().After(e.expires) {
		return false
	}
	p.c.Remove(key)
	return true
}
