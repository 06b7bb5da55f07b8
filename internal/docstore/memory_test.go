package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	snaps chan Snapshot
	errs  chan error
}

func newRecorder() *recorder {
	return &recorder{snaps: make(chan Snapshot, 64), errs: make(chan error, 4)}
}

func (r *recorder) onSnapshot(s Snapshot) { r.snaps <- s }
func (r *recorder) onError(err error)     { r.errs <- err }

func (r *recorder) next(t *testing.T) Snapshot {
	t.Helper()
	select {
	case s := <-r.snaps:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("no snapshot delivered")
		return Snapshot{}
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case s := <-r.snaps:
		t.Fatalf("unexpected snapshot with %d documents", len(s.Documents))
	case <-time.After(50 * time.Millisecond):
	}
}

func ids(s Snapshot) []string {
	out := make([]string, 0, len(s.Documents))
	for _, d := range s.Documents {
		out = append(out, d.ID)
	}
	return out
}

func TestMemoryStore_AddAssignsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	doc, err := store.Add(ctx, "orders", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.JSONEq(t, `{"a":1}`, string(doc.Data))
}

func TestMemoryStore_ListenInitialAndChanges(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	require.NoError(t, store.Set(ctx, "products", "p1", []byte(`{}`)))

	rec := newRecorder()
	reg, err := store.Listen(ctx, Query{Collection: "products"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer reg.Remove()

	assert.Equal(t, []string{"p1"}, ids(rec.next(t)))

	require.NoError(t, store.Set(ctx, "products", "p2", []byte(`{}`)))
	assert.Equal(t, []string{"p1", "p2"}, ids(rec.next(t)))

	require.NoError(t, store.Delete(ctx, "products", "p1"))
	assert.Equal(t, []string{"p2"}, ids(rec.next(t)))

	// other collections do not wake this listener
	_, err = store.Add(ctx, "orders", []byte(`{}`))
	require.NoError(t, err)
	rec.none(t)
}

func TestMemoryStore_SnapshotsArriveInChangeOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	rec := newRecorder()
	reg, err := store.Listen(ctx, Query{Collection: "c"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer reg.Remove()
	require.Empty(t, rec.next(t).Documents)

	for i := 1; i <= 20; i++ {
		_, err := store.Add(ctx, "c", []byte(`{}`))
		require.NoError(t, err)
	}
	for i := 1; i <= 20; i++ {
		assert.Len(t, rec.next(t).Documents, i)
	}
}

func TestMemoryStore_DescendingOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, _ := store.Add(ctx, "orders", []byte(`{}`))
	second, _ := store.Add(ctx, "orders", []byte(`{}`))
	third, _ := store.Add(ctx, "orders", []byte(`{}`))

	rec := newRecorder()
	reg, err := store.Listen(ctx, Query{Collection: "orders", OrderBy: Descending}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer reg.Remove()

	assert.Equal(t, []string{third.ID, second.ID, first.ID}, ids(rec.next(t)))
}

func TestMemoryStore_RemoveStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	rec := newRecorder()
	reg, err := store.Listen(ctx, Query{Collection: "c"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	rec.next(t)

	reg.Remove()
	reg.Remove()
	_, err = store.Add(ctx, "c", []byte(`{}`))
	require.NoError(t, err)
	rec.none(t)
}

func TestMemoryStore_DeleteMissing(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	err := store.Delete(context.Background(), "products", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateExistingOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	defer store.Close()

	assert.ErrorIs(t, store.Update(ctx, "products", "p1", []byte(`{}`)), ErrNotFound)

	rec := newRecorder()
	reg, err := store.Listen(ctx, Query{Collection: "products"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer reg.Remove()
	assert.Empty(t, rec.next(t).Documents)

	require.NoError(t, store.Set(ctx, "products", "p1", []byte(`{"name":"a"}`)))
	rec.next(t)
	require.NoError(t, store.Update(ctx, "products", "p1", []byte(`{"name":"b"}`)))
	snap := rec.next(t)
	require.Len(t, snap.Documents, 1)
	assert.JSONEq(t, `{"name":"b"}`, string(snap.Documents[0].Data))
}

func TestHub_CloseDuringListen(t *testing.T) {
	var h *hub
	h = newHub(func(context.Context, Query) ([]Document, error) {
		h.close()
		return nil, nil
	})

	delivered := make(chan Snapshot, 1)
	reg, err := h.listen(context.Background(), Query{Collection: "c"}, func(s Snapshot) { delivered <- s }, nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, reg)

	h.mu.Lock()
	assert.Empty(t, h.regs)
	h.mu.Unlock()
	select {
	case <-delivered:
		t.Fatalf("closed hub delivered a snapshot")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	_, err := store.Add(ctx, "c", nil)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.Listen(ctx, Query{Collection: "c"}, nil, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStore_CancelledWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()
	defer store.Close()
	_, err := store.Add(ctx, "c", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHub_LoadFailureEndsRegistration(t *testing.T) {
	fail := false
	boom := errors.New("backend unavailable")
	h := newHub(func(ctx context.Context, q Query) ([]Document, error) {
		if fail {
			return nil, boom
		}
		return nil, nil
	})

	rec := newRecorder()
	_, err := h.listen(context.Background(), Query{Collection: "c"}, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	rec.next(t)

	fail = true
	h.publish(context.Background(), "c")
	select {
	case err := <-rec.errs:
		assert.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatalf("error not delivered")
	}

	fail = false
	h.publish(context.Background(), "c")
	rec.none(t)
}
