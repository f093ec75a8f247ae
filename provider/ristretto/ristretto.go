// Package ristretto adapts dgraph-io/ristretto as a syncache provider.
//
// Ristretto admits and evicts by TinyLFU rather than strict LRU, so capacity
// pressure may reject writes (Set returns ok=false) instead of evicting the
// least recently used entry. Use provider/lru when exact LRU order matters.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/syncache/provider"
)

type Provider struct {
	c *rc.Cache
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

// ConfigForEntries sizes ristretto for roughly n unit-cost entries.
func ConfigForEntries(n int) Config {
	if n <= 0 {
		n = 1000
	}
	return Config{
		NumCounters: int64(n) * 10,
		MaxCost:     int64(n),
		BufferItems: 64,
	}
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        cfg.BufferItems,
		Metrics:            cfg.Metrics,
		IgnoreInternalCost: true, // cost is entries, as passed by the store
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Peek is Get: ristretto keeps no recency list to protect.
func (p *Provider) Peek(ctx context.Context, key string) ([]byte, bool, error) {
	return p.Get(ctx, key)
}

// Set waits for the write buffer to flush so a following Get observes it.
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if cost <= 0 {
		cost = 1
	}
	var ok bool
	if ttl > 0 {
		ok = p.c.SetWithTTL(key, value, cost, ttl)
	} else {
		ok = p.c.Set(key, value, cost)
	}
	p.c.Wait()
	return ok, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes ristretto counters when Config.Metrics is set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
