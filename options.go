package syncache

import (
	"time"

	c "github.com/unkn0wn-root/syncache/codec"
	gen "github.com/unkn0wn-root/syncache/genstore"
	pr "github.com/unkn0wn-root/syncache/provider"
	"github.com/unkn0wn-root/syncache/provider/lru"
	"github.com/unkn0wn-root/syncache/record"
)

const (
	DefaultMax          = 1000
	DefaultMaxAge       = 60 * time.Second
	defaultGenSweep     = time.Hour
	defaultGenRetention = 24 * time.Hour
)

// Options tune a cache instance. Everything is optional.
type Options struct {
	Name      string // diagnostic name used in logs; "cache" if empty
	Namespace string // optional key prefix, e.g. "user"

	Max    int           // capacity in entries for the default provider; 0 => 1000
	MaxAge time.Duration // entry time-to-live; 0 => 60s, < 0 => no expiry

	Provider pr.Provider            // nil => provider/lru sized by Max/MaxAge
	Codec    c.Codec[record.Record] // nil => JSON
	GenStore gen.GenStore           // nil => genstore.Local

	GenCleanupInterval time.Duration // local gen store sweep; 0 => 1h
	GenRetention       time.Duration // 0 => 24h

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used

	Clock func() time.Time // expiry clock; nil => time.Now
}

func (o Options) withDefaults() Options {
	o.Name = coalesce(o.Name, "cache")
	o.Max = coalesce(o.Max, DefaultMax)
	o.MaxAge = coalesce(o.MaxAge, DefaultMaxAge)
	o.GenCleanupInterval = coalesce(o.GenCleanupInterval, defaultGenSweep)
	o.GenRetention = coalesce(o.GenRetention, defaultGenRetention)
	o.Logger = coalesce[Logger](o.Logger, NopLogger{})
	o.Hooks = coalesce[Hooks](o.Hooks, NopHooks{})
	if o.Codec == nil {
		o.Codec = c.JSON[record.Record]{}
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.GenStore == nil {
		o.GenStore = gen.NewLocal(o.GenCleanupInterval, o.GenRetention)
	}
	if o.Provider == nil {
		hooks := o.Hooks
		o.Provider = lru.New(lru.Config{
			MaxEntries: o.Max,
			MaxAge:     o.MaxAge,
			OnEvict:    hooks.Evicted,
			Clock:      o.Clock,
		})
	}
	return o
}
