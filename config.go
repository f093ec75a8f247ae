package syncache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	c "github.com/unkn0wn-root/syncache/codec"
	pr "github.com/unkn0wn-root/syncache/provider"
	"github.com/unkn0wn-root/syncache/provider/bigcache"
	"github.com/unkn0wn-root/syncache/provider/ristretto"
	"github.com/unkn0wn-root/syncache/record"
)

// Config is the file form of Options.
//
//	name: users
//	namespace: user
//	max: 1000
//	max_age: 60s
//	provider: lru        # lru | ristretto | bigcache
//	codec: json          # json | cbor | msgpack | protobuf
//	max_decode_bytes: 0  # 0 = unlimited
type Config struct {
	Name               string        `yaml:"name"`
	Namespace          string        `yaml:"namespace"`
	Max                int           `yaml:"max"`
	MaxAge             time.Duration `yaml:"max_age"`
	Provider           string        `yaml:"provider"`
	Codec              string        `yaml:"codec"`
	MaxDecodeBytes     int           `yaml:"max_decode_bytes"`
	GenCleanupInterval time.Duration `yaml:"gen_cleanup_interval"`
	GenRetention       time.Duration `yaml:"gen_retention"`
}

// LoadConfig decodes and validates a YAML config. Unknown fields are
// rejected. An empty document yields the zero Config.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile is LoadConfig on the file at path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return LoadConfig(f)
}

func (cfg Config) Validate() error {
	var errs []error
	if cfg.Max < 0 {
		errs = append(errs, fmt.Errorf("max must be >= 0, got %d", cfg.Max))
	}
	if cfg.MaxDecodeBytes < 0 {
		errs = append(errs, fmt.Errorf("max_decode_bytes must be >= 0, got %d", cfg.MaxDecodeBytes))
	}
	if cfg.GenCleanupInterval < 0 || cfg.GenRetention < 0 {
		errs = append(errs, errors.New("gen_cleanup_interval and gen_retention must be >= 0"))
	}
	switch cfg.Provider {
	case "", "lru", "ristretto":
	case "bigcache":
		if cfg.MaxAge < 0 {
			errs = append(errs, errors.New("bigcache provider requires a positive max_age"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", cfg.Provider))
	}
	switch cfg.Codec {
	case "", "json", "cbor", "msgpack", "protobuf":
	default:
		errs = append(errs, fmt.Errorf("unknown codec %q", cfg.Codec))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Options builds Options from the config. ctx bounds background work of
// providers that run any (bigcache). Logger, Hooks and Clock are left for
// the caller to set.
func (cfg Config) Options(ctx context.Context) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	codec, err := cfg.codec()
	if err != nil {
		return Options{}, err
	}
	provider, err := cfg.provider(ctx)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Name:               cfg.Name,
		Namespace:          cfg.Namespace,
		Max:                cfg.Max,
		MaxAge:             cfg.MaxAge,
		Provider:           provider,
		Codec:              codec,
		GenCleanupInterval: cfg.GenCleanupInterval,
		GenRetention:       cfg.GenRetention,
	}, nil
}

func (cfg Config) codec() (c.Codec[record.Record], error) {
	var inner c.Codec[record.Record]
	switch cfg.Codec {
	case "", "json":
		inner = c.JSON[record.Record]{}
	case "cbor":
		cb, err := c.NewCBOR[record.Record](true)
		if err != nil {
			return nil, err
		}
		inner = cb
	case "msgpack":
		inner = c.Msgpack[record.Record]{}
	case "protobuf":
		inner = c.Protobuf{}
	}
	if cfg.MaxDecodeBytes > 0 {
		return c.LimitCodec[record.Record]{Inner: inner, MaxDecode: cfg.MaxDecodeBytes}, nil
	}
	return inner, nil
}

// provider returns nil for lru so the default provider is built with the
// cache's hooks.
func (cfg Config) provider(ctx context.Context) (pr.Provider, error) {
	switch cfg.Provider {
	case "ristretto":
		p, err := ristretto.New(ristretto.ConfigForEntries(cfg.Max))
		if err != nil {
			return nil, err
		}
		return p, nil
	case "bigcache":
		p, err := bigcache.New(ctx, bigcache.Config{
			LifeWindow:         coalesce(cfg.MaxAge, DefaultMaxAge),
			MaxEntriesInWindow: coalesce(cfg.Max, DefaultMax),
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, nil
}
