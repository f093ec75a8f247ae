package logrus_test

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/syncache"
	sclogrus "github.com/unkn0wn-root/syncache/log/logrus"
)

func TestLogger(t *testing.T) {
	t.Parallel()

	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	l := sclogrus.New(base)

	l.Debug("cache miss", syncache.Fields{"key": "user:1"})
	e := hook.LastEntry()
	require.Equal(t, logrus.DebugLevel, e.Level)
	require.Equal(t, "cache miss", e.Message)
	require.Equal(t, "user:1", e.Data["key"])
	require.Equal(t, "syncache", e.Data["component"])

	boom := errors.New("boom")
	l.Warn("gen snapshot failed", syncache.Fields{"key": "user:1", "err": boom})
	e = hook.LastEntry()
	require.Equal(t, boom, e.Data[logrus.ErrorKey])
	require.Equal(t, "user:1", e.Data["key"])
	require.Len(t, hook.AllEntries(), 2)
}
