package genstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalSnapshotMissingIsZero(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	g, err := s.Snapshot(ctx, "nope")
	require.NoError(t, err)
	require.Zero(t, g)
}

func TestLocalBumpIsPerKey(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	for range 2 {
		_, err := s.Bump(ctx, "b")
		require.NoError(t, err)
	}

	a, _ := s.Snapshot(ctx, "a")
	b, _ := s.Snapshot(ctx, "b")
	require.Zero(t, a)
	require.Equal(t, uint64(2), b)
}

func TestLocalCleanupPrunesOld(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	now := time.Now()
	s.now = func() time.Time { return now }
	_, _ = s.Bump(ctx, "old")

	now = now.Add(2 * time.Second)
	_, _ = s.Bump(ctx, "fresh")

	require.Equal(t, 1, s.Cleanup(time.Second))

	g, _ := s.Snapshot(ctx, "old")
	require.Zero(t, g, "expected pruned -> 0")
	g, _ = s.Snapshot(ctx, "fresh")
	require.Equal(t, uint64(1), g)
}

func TestLocalCloseIsIdempotent(t *testing.T) {
	s := NewLocal(time.Millisecond, time.Hour)
	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
}
