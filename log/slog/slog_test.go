package slog_test

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/syncache"
	sclog "github.com/unkn0wn-root/syncache/log/slog"
)

func TestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := sclog.New(stdslog.New(stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})))

	l.Debug("cache hit", syncache.Fields{"key": "user:1"})
	require.Zero(t, buf.Len(), "debug is below the handler level")

	l.Warn("gen bump failed", syncache.Fields{"name": "users", "key": "user:1"})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "WARN", line["level"])
	require.Equal(t, "gen bump failed", line["msg"])
	require.Equal(t, "users", line["name"])
	require.Equal(t, "user:1", line["key"])
}

func TestLogger_NilUsesDefault(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() { sclog.Logger{}.Debug("x", nil) })
}
