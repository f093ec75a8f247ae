package genstore

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	gen     uint64
	touched time.Time
}

// Local keeps generations in process memory. With a positive cleanup
// interval and retention it prunes keys that have not been invalidated for
// longer than retention.
//
// Pruning resets a key to generation 0. Retention must therefore exceed the
// longest backend read, otherwise a fill that started before the prune could
// match the reset generation.
type Local struct {
	mu   sync.RWMutex
	gens map[string]entry
	now  func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

var _ GenStore = (*Local)(nil)

func NewLocal(cleanupInterval, retention time.Duration) *Local {
	s := &Local{
		gens: make(map[string]entry),
		now:  time.Now,
	}
	if cleanupInterval <= 0 || retention <= 0 {
		return s
	}
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(cleanupInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.Cleanup(retention)
			case <-s.stop:
				return
			}
		}
	}()
	return s
}

func (s *Local) Snapshot(_ context.Context, key string) (uint64, error) {
	s.mu.RLock()
	e := s.gens[key]
	s.mu.RUnlock()
	return e.gen, nil
}

func (s *Local) Bump(_ context.Context, key string) (uint64, error) {
	now := s.now()
	s.mu.Lock()
	e := s.gens[key]
	e.gen++
	e.touched = now
	s.gens[key] = e
	s.mu.Unlock()
	return e.gen, nil
}

// Cleanup returns the number of keys it forgot.
func (s *Local) Cleanup(retention time.Duration) int {
	if retention <= 0 {
		return 0
	}
	cutoff := s.now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.gens {
		if e.touched.Before(cutoff) {
			delete(s.gens, k)
			removed++
		}
	}
	return removed
}

// Len reports how many keys carry a non-zero generation.
func (s *Local) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.gens)
}

func (s *Local) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stop != nil {
			close(s.stop)
			s.wg.Wait()
		}
	})
	return nil
}
