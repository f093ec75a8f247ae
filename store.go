package syncache

import (
	"context"
	"errors"
	"sync"
	"time"

	c "github.com/unkn0wn-root/syncache/codec"
	gen "github.com/unkn0wn-root/syncache/genstore"
	"github.com/unkn0wn-root/syncache/internal/wire"
	pr "github.com/unkn0wn-root/syncache/provider"
	"github.com/unkn0wn-root/syncache/record"
)

// Store is the bounded record cache keyed by derived key.
//
// Values are encoded on Set and decoded on Get, so a caller never shares
// memory with a stored entry. Each entry carries the key's generation at
// write time and the time it was stored; a read drops an entry whose
// generation moved or that is older than MaxAge.
//
// Records come back in the codec's shape. Get returns what Set returned,
// which is the codec round-trip of the input and not necessarily equal to
// it: with the default JSON codec numbers decode as float64 and times as
// RFC 3339 strings. Normalize applies the same round-trip without storing;
// Cache uses it so a read served by the backend equals the later hit.
type Store struct {
	name     string
	ns       string
	provider pr.Provider
	codec    c.Codec[record.Record]
	gens     gen.GenStore
	log      Logger
	hooks    Hooks
	maxAge   time.Duration
	now      func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// NewStore builds a Store from opts. Zero options are filled with defaults.
func NewStore(opts Options) (*Store, error) {
	if opts.Max < 0 {
		return nil, errors.New("syncache: Max must be >= 0")
	}
	opts = opts.withDefaults()
	return &Store{
		name:     opts.Name,
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		gens:     opts.GenStore,
		log:      opts.Logger,
		hooks:    opts.Hooks,
		maxAge:   opts.MaxAge,
		now:      opts.Clock,
	}, nil
}

// Key derives the storage key for id under the store namespace.
func (s *Store) Key(id string) string { return DeriveKey(s.ns, id) }

// Get returns a copy of the live entry under key. A hit is recorded as the
// key's most recent use.
func (s *Store) Get(ctx context.Context, key string) (record.Record, bool, error) {
	s.log.Debug("cache get", Fields{"name": s.name, "key": key})

	raw, ok, err := s.provider.Get(ctx, key)
	if err != nil {
		return record.Record{}, false, err
	}
	if !ok {
		s.log.Debug("cache miss", Fields{"name": s.name, "key": key})
		return record.Record{}, false, nil
	}

	e, ok := s.open(ctx, key, raw)
	if !ok {
		s.log.Debug("cache miss", Fields{"name": s.name, "key": key})
		return record.Record{}, false, nil
	}
	rec, err := s.codec.Decode(e.Payload)
	if err != nil {
		s.heal(ctx, key, "decode")
		s.log.Debug("cache miss", Fields{"name": s.name, "key": key})
		return record.Record{}, false, nil
	}

	s.log.Debug("cache hit", Fields{"name": s.name, "key": key})
	return rec, true, nil
}

// Has reports whether a live entry exists under key without counting as a
// use.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	raw, ok, err := s.provider.Peek(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	_, ok = s.open(ctx, key, raw)
	return ok, nil
}

// Set stores a copy of rec under key and returns the record as a later Get
// will return it. The entry is stamped with the key's current generation.
func (s *Store) Set(ctx context.Context, key string, rec record.Record) (record.Record, error) {
	g, ok := s.snapshot(ctx, key)
	if !ok {
		return record.Record{}, errors.New("syncache: generation unavailable")
	}
	payload, norm, err := s.encode(rec)
	if err != nil {
		return record.Record{}, err
	}
	if _, err := s.put(ctx, key, payload, g); err != nil {
		return record.Record{}, err
	}
	return norm, nil
}

// SetWithGen stores rec only if the key's generation still equals observed.
// Returns false when the write was skipped or the provider rejected it.
func (s *Store) SetWithGen(ctx context.Context, key string, rec record.Record, observed uint64) (bool, error) {
	_, ok, err := s.fill(ctx, key, rec, observed)
	return ok, err
}

// Normalize returns rec as the store would hand it back after a Set.
func (s *Store) Normalize(rec record.Record) (record.Record, error) {
	_, norm, err := s.encode(rec)
	return norm, err
}

// fill is SetWithGen that also returns the record readers should see: the
// normalized record, or a plain copy of rec when the codec rejects it. The
// record is returned even when the write was skipped or failed.
func (s *Store) fill(ctx context.Context, key string, rec record.Record, observed uint64) (record.Record, bool, error) {
	payload, norm, err := s.encode(rec)
	if err != nil {
		return rec.Clone(), false, err
	}
	cur, ok := s.snapshot(ctx, key)
	if !ok || cur != observed {
		s.log.Debug("cache fill skipped", Fields{"name": s.name, "key": key, "observed": observed, "current": cur})
		s.hooks.StaleFillSkipped(key)
		return norm, false, nil
	}
	stored, err := s.put(ctx, key, payload, observed)
	return norm, stored, err
}

// SnapshotGen returns the key's current generation, 0 when unknown.
func (s *Store) SnapshotGen(ctx context.Context, key string) uint64 {
	g, _ := s.snapshot(ctx, key)
	return g
}

// Delete bumps the key's generation and drops its entry. Any entry written
// with an older generation is unreadable afterwards even if the delete
// itself failed.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.log.Debug("cache del", Fields{"name": s.name, "key": key})

	_, bumpErr := s.gens.Bump(ctx, key)
	if bumpErr != nil {
		s.log.Warn("gen bump failed", Fields{"name": s.name, "key": key, "err": bumpErr})
	}
	delErr := s.provider.Del(ctx, key)
	if delErr != nil {
		s.log.Warn("provider delete failed", Fields{"name": s.name, "key": key, "err": delErr})
	}

	if bumpErr != nil || delErr != nil {
		return &InvalidateError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	}
	return nil
}

// Close releases the provider and the generation store. Safe to call more
// than once.
func (s *Store) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = errors.Join(s.gens.Close(ctx), s.provider.Close(ctx))
	})
	return s.closeErr
}

// encode returns the payload for rec and the record decoded back from it.
func (s *Store) encode(rec record.Record) ([]byte, record.Record, error) {
	payload, err := s.codec.Encode(rec)
	if err != nil {
		return nil, record.Record{}, err
	}
	norm, err := s.codec.Decode(payload)
	if err != nil {
		return nil, record.Record{}, err
	}
	return payload, norm, nil
}

func (s *Store) put(ctx context.Context, key string, payload []byte, g uint64) (bool, error) {
	frame := wire.Encode(wire.Entry{Gen: g, StoredAt: s.now(), Payload: payload})

	var ttl time.Duration
	if s.maxAge > 0 {
		ttl = s.maxAge
	}
	ok, err := s.provider.Set(ctx, key, frame, 1, ttl)
	if err != nil {
		return false, err
	}
	if !ok {
		s.log.Debug("cache set rejected", Fields{"name": s.name, "key": key})
		s.hooks.ProviderSetRejected(key)
		return false, nil
	}
	s.log.Debug("cache set", Fields{"name": s.name, "key": key, "gen": g})
	return true, nil
}

// open validates a stored frame. Invalid frames are removed.
func (s *Store) open(ctx context.Context, key string, raw []byte) (wire.Entry, bool) {
	e, err := wire.Decode(raw)
	if err != nil {
		s.heal(ctx, key, "corrupt")
		return wire.Entry{}, false
	}
	if s.maxAge > 0 && s.now().Sub(e.StoredAt) > s.maxAge {
		s.heal(ctx, key, "expired")
		return wire.Entry{}, false
	}
	cur, ok := s.snapshot(ctx, key)
	if !ok {
		return wire.Entry{}, false
	}
	if cur != e.Gen {
		s.heal(ctx, key, "gen_mismatch")
		return wire.Entry{}, false
	}
	return e, true
}

func (s *Store) snapshot(ctx context.Context, key string) (uint64, bool) {
	g, err := s.gens.Snapshot(ctx, key)
	if err != nil {
		s.log.Warn("gen snapshot failed", Fields{"name": s.name, "key": key, "err": err})
		return 0, false
	}
	return g, true
}

func (s *Store) heal(ctx context.Context, key, reason string) {
	if err := s.provider.Del(ctx, key); err != nil {
		s.log.Warn("self-heal delete failed", Fields{"name": s.name, "key": key, "reason": reason, "err": err})
	}
	s.hooks.SelfHeal(key, reason)
}
