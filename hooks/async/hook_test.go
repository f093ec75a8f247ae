package asynchook_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/syncache"
	asynchook "github.com/unkn0wn-root/syncache/hooks/async"
)

type counting struct {
	syncache.NopHooks

	mu  sync.Mutex
	got []string
}

func (c *counting) SelfHeal(key, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, key+":"+reason)
}

func TestHooks_DeliversBeforeClose(t *testing.T) {
	t.Parallel()

	inner := &counting{}
	h := asynchook.New(inner, 2, 64)
	for range 10 {
		h.SelfHeal("user:1", "expired")
	}
	h.Close()

	require.Len(t, inner.got, 10)
	require.Zero(t, h.Dropped())
}

func TestHooks_DropsAfterClose(t *testing.T) {
	t.Parallel()

	inner := &counting{}
	h := asynchook.New(inner, 1, 1)
	h.Close()
	h.Close()

	require.NotPanics(t, func() { h.SelfHeal("user:1", "expired") })
	require.Equal(t, uint64(1), h.Dropped())
	require.Empty(t, inner.got)
}
