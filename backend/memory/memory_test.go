package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/syncache"
	"github.com/unkn0wn-root/syncache/backend/memory"
	"github.com/unkn0wn-root/syncache/record"
)

func do(t *testing.T, db *memory.DB, method syncache.Method, m syncache.Model) (syncache.Result, error) {
	t.Helper()
	return syncache.Do(context.Background(), db.Sync, method, m, nil)
}

func TestDB_CRUD(t *testing.T) {
	t.Parallel()

	db := memory.New(memory.WithIDs(func() string { return "1" }))
	e := record.NewEntity("posts", record.New("", map[string]any{"title": "a"}))

	res, err := do(t, db, syncache.MethodCreate, e)
	require.NoError(t, err)
	require.Equal(t, "1", res.Record.ID)
	e.Apply(*res.Record)

	res, err = do(t, db, syncache.MethodRead, e)
	require.NoError(t, err)
	require.Equal(t, "a", res.Record.Fields["title"])

	e.Record.Set("title", "b")
	_, err = do(t, db, syncache.MethodUpdate, e)
	require.NoError(t, err)
	got, ok := db.Lookup("posts/1")
	require.True(t, ok)
	require.Equal(t, "b", got.Fields["title"])

	_, err = do(t, db, syncache.MethodDelete, e)
	require.NoError(t, err)
	require.Zero(t, db.Len())

	res, err = do(t, db, syncache.MethodRead, e)
	require.NoError(t, err, "a missing record is an empty result")
	require.True(t, res.Empty())

	require.Equal(t, 1, db.Calls(syncache.MethodCreate))
	require.Equal(t, 2, db.Calls(syncache.MethodRead))
}

func TestDB_StoresCopies(t *testing.T) {
	t.Parallel()

	db := memory.New()
	rec := record.New("1", map[string]any{"title": "a"})
	db.Put("posts", rec)
	rec.Fields["title"] = "changed"

	res, err := do(t, db, syncache.MethodRead, record.NewEntity("posts", record.New("1", nil)))
	require.NoError(t, err)
	require.Equal(t, "a", res.Record.Fields["title"])
}

func TestDB_List(t *testing.T) {
	t.Parallel()

	db := memory.New()
	db.Put("posts", record.New("2", nil))
	db.Put("posts", record.New("1", nil))
	db.Put("users", record.New("1", nil))

	res, err := do(t, db, syncache.MethodRead, record.NewEntity("posts", record.Record{}))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	require.Equal(t, "1", res.Records[0].ID)
	require.Equal(t, "2", res.Records[1].ID)
}

func TestDB_RequiresIdentity(t *testing.T) {
	t.Parallel()

	db := memory.New()
	for _, method := range []syncache.Method{syncache.MethodUpdate, syncache.MethodDelete} {
		_, err := do(t, db, method, record.NewEntity("posts", record.Record{}))
		require.ErrorIs(t, err, memory.ErrNoIdentity)
	}
}

func TestDB_FailNext(t *testing.T) {
	t.Parallel()

	db := memory.New()
	db.Put("posts", record.New("1", nil))
	boom := context.DeadlineExceeded
	db.FailNext(syncache.MethodRead, boom)

	_, err := do(t, db, syncache.MethodRead, record.NewEntity("posts", record.New("1", nil)))
	require.ErrorIs(t, err, boom)

	_, err = do(t, db, syncache.MethodRead, record.NewEntity("posts", record.New("1", nil)))
	require.NoError(t, err)
}

func TestDB_Latency(t *testing.T) {
	t.Parallel()

	db := memory.New(memory.WithLatency(20 * time.Millisecond))
	db.Put("posts", record.New("1", nil))

	start := time.Now()
	_, err := do(t, db, syncache.MethodRead, record.NewEntity("posts", record.New("1", nil)))
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
