package docstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openSQLite skips when the sqlite driver is unavailable (built without cgo).
func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "store.db")
	store, err := OpenSQL("sqlite", dsn, nil, zerolog.Nop())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLStore_AddSetDelete(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	rec := newRecorder()
	reg, err := store.Listen(ctx, Query{Collection: "products"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer reg.Remove()
	assert.Empty(t, rec.next(t).Documents)

	require.NoError(t, store.Set(ctx, "products", "p1", []byte(`{"name":"X-Egg"}`)))
	snap := rec.next(t)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "p1", snap.Documents[0].ID)

	// upsert keeps a single row
	require.NoError(t, store.Set(ctx, "products", "p1", []byte(`{"name":"X-Egg 2"}`)))
	snap = rec.next(t)
	require.Len(t, snap.Documents, 1)
	assert.JSONEq(t, `{"name":"X-Egg 2"}`, string(snap.Documents[0].Data))

	require.NoError(t, store.Delete(ctx, "products", "p1"))
	assert.Empty(t, rec.next(t).Documents)
	assert.ErrorIs(t, store.Delete(ctx, "products", "p1"), ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, "products", "p1", []byte(`{}`)), ErrNotFound)
}

func TestSQLStore_Update(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	require.NoError(t, store.Set(ctx, "products", "p1", []byte(`{"name":"X-Egg"}`)))

	rec := newRecorder()
	reg, err := store.Listen(ctx, Query{Collection: "products"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer reg.Remove()
	rec.next(t)

	require.NoError(t, store.Update(ctx, "products", "p1", []byte(`{"name":"X-Bacon"}`)))
	snap := rec.next(t)
	require.Len(t, snap.Documents, 1)
	assert.JSONEq(t, `{"name":"X-Bacon"}`, string(snap.Documents[0].Data))

	assert.ErrorIs(t, store.Update(ctx, "products", "p2", []byte(`{}`)), ErrNotFound)
}

func TestSQLStore_OrdersDescending(t *testing.T) {
	ctx := context.Background()
	store := openSQLite(t)

	var added []string
	for i := 0; i < 3; i++ {
		doc, err := store.Add(ctx, "orders", []byte(`{}`))
		require.NoError(t, err)
		added = append(added, doc.ID)
	}

	rec := newRecorder()
	reg, err := store.Listen(ctx, Query{Collection: "orders", OrderBy: Descending}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer reg.Remove()

	assert.Equal(t, []string{added[2], added[1], added[0]}, ids(rec.next(t)))
}

func TestDialector_Unknown(t *testing.T) {
	_, err := Dialector("oracle", "")
	assert.Error(t, err)
}
