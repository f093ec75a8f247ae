package ristretto_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/syncache/provider/ristretto"
)

func TestProvider_SetGetDel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p, err := ristretto.New(ristretto.ConfigForEntries(100))
	require.NoError(t, err)
	defer p.Close(ctx)

	ok, err := p.Set(ctx, "k", []byte("v"), 1, 0)
	require.NoError(t, err)
	require.True(t, ok)

	v, hit, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, p.Del(ctx, "k"))
	_, hit, err = p.Peek(ctx, "k")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := ristretto.New(ristretto.Config{})
	require.Error(t, err)
}
