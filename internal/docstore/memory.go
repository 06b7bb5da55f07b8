package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore in-memory хранилище документов с подписками
type MemoryStore struct {
	mu          sync.RWMutex
	nextSeq     int64
	collections map[string]map[string]Document
	closed      bool

	now func() time.Time
	hub *hub
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		nextSeq:     1,
		collections: make(map[string]map[string]Document),
		now:         func() time.Time { return time.Now().UTC() },
	}
	m.hub = newHub(m.load)
	return m
}

func (m *MemoryStore) Add(ctx context.Context, collection string, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Document{}, ErrClosed
	}
	doc := Document{
		ID:        uuid.NewString(),
		Data:      append([]byte(nil), data...),
		CreatedAt: m.now(),
		seq:       m.nextSeq,
	}
	m.nextSeq++
	m.collection(collection)[doc.ID] = doc
	m.mu.Unlock()

	m.hub.publish(ctx, collection)
	return copyDoc(doc), nil
}

func (m *MemoryStore) Set(ctx context.Context, collection, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	docs := m.collection(collection)
	doc, ok := docs[id]
	if !ok {
		doc = Document{ID: id, CreatedAt: m.now(), seq: m.nextSeq}
		m.nextSeq++
	}
	doc.Data = append([]byte(nil), data...)
	docs[id] = doc
	m.mu.Unlock()

	m.hub.publish(ctx, collection)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	docs := m.collections[collection]
	doc, ok := docs[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	doc.Data = append([]byte(nil), data...)
	docs[id] = doc
	m.mu.Unlock()

	m.hub.publish(ctx, collection)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	docs := m.collections[collection]
	if _, ok := docs[id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(docs, id)
	m.mu.Unlock()

	m.hub.publish(ctx, collection)
	return nil
}

func (m *MemoryStore) Listen(ctx context.Context, q Query, onSnapshot func(Snapshot), onError func(error)) (Registration, error) {
	return m.hub.listen(ctx, q, onSnapshot, onError)
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.hub.close()
	return nil
}

// caller holds m.mu
func (m *MemoryStore) collection(name string) map[string]Document {
	docs, ok := m.collections[name]
	if !ok {
		docs = make(map[string]Document)
		m.collections[name] = docs
	}
	return docs
}

func (m *MemoryStore) load(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]Document, 0, len(m.collections[q.Collection]))
	for _, d := range m.collections[q.Collection] {
		// return copy
		out = append(out, copyDoc(d))
	}
	sortDocuments(out, q.OrderBy)
	return out, nil
}

func copyDoc(d Document) Document {
	d.Data = append([]byte(nil), d.Data...)
	return d
}

// sortDocuments orders by creation time; insertion sequence breaks ties.
func sortDocuments(docs []Document, dir Direction) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		switch dir {
		case Descending:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.seq > b.seq
		case Ascending:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.seq < b.seq
	})
}
