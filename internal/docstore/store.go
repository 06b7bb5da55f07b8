package docstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound возвращается, когда документ не найден
	ErrNotFound = errors.New("not found")
	// ErrClosed возвращается после Close хранилища
	ErrClosed = errors.New("store closed")
)

// Document один документ коллекции. ID и CreatedAt назначает хранилище.
type Document struct {
	ID        string
	Data      []byte
	CreatedAt time.Time

	seq int64
}

// Direction порядок документов в снимке по времени создания
type Direction int

const (
	Unordered Direction = iota
	Ascending
	Descending
)

// Query описывает подписку на коллекцию
type Query struct {
	Collection string
	OrderBy    Direction
}

// Snapshot полное содержимое коллекции на момент изменения
type Snapshot struct {
	Documents []Document
}

// Registration handle returned by Listen. Remove stops further delivery and
// may be called more than once, including from inside a callback.
type Registration interface {
	Remove()
}

// Store is the document database the repositories talk to.
//
// Listen delivers an initial snapshot and then a full snapshot after every
// change to the collection, in change order, on a goroutine owned by the
// registration. A failed reload is reported once through onError and ends the
// registration.
type Store interface {
	Add(ctx context.Context, collection string, data []byte) (Document, error)
	Set(ctx context.Context, collection, id string, data []byte) error
	// Update replaces the data of an existing document and fails with
	// ErrNotFound when there is none.
	Update(ctx context.Context, collection, id string, data []byte) error
	Delete(ctx context.Context, collection, id string) error
	Listen(ctx context.Context, q Query, onSnapshot func(Snapshot), onError func(error)) (Registration, error)
	Close() error
}
