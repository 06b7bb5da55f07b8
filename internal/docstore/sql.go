package docstore

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// documentRow строка таблицы documents
type documentRow struct {
	Seq        int64     `gorm:"primaryKey;autoIncrement"`
	Collection string    `gorm:"size:64;not null;uniqueIndex:idx_documents_collection_id,priority:1"`
	DocID      string    `gorm:"column:doc_id;size:64;not null;uniqueIndex:idx_documents_collection_id,priority:2"`
	Data       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

func (documentRow) TableName() string { return "documents" }

func (r documentRow) toDocument() Document {
	return Document{ID: r.DocID, Data: []byte(r.Data), CreatedAt: r.CreatedAt.UTC(), seq: r.Seq}
}

// SQLStore хранилище документов поверх GORM (PostgreSQL или SQLite)
type SQLStore struct {
	db       *gorm.DB
	notifier Notifier
	hub      *hub
	log      zerolog.Logger
	closed   atomic.Bool
}

var _ Store = (*SQLStore)(nil)

// Dialector picks the GORM driver for a configured store driver name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

// OpenSQL connects, migrates the documents table and wires the notifier to
// the listener hub. A nil notifier means in-process notifications only.
func OpenSQL(driver, dsn string, notifier Notifier, log zerolog.Logger) (*SQLStore, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// single writer
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	return NewSQLStore(db, notifier, log)
}

func NewSQLStore(db *gorm.DB, notifier Notifier, log zerolog.Logger) (*SQLStore, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	s := &SQLStore{
		db:       db,
		notifier: notifier,
		log:      log.With().Str("component", "sql_store").Logger(),
	}
	s.hub = newHub(s.load)
	notifier.OnChange(func(ctx context.Context, collection string) {
		s.hub.publish(ctx, collection)
	})
	return s, nil
}

func (s *SQLStore) Add(ctx context.Context, collection string, data []byte) (Document, error) {
	if s.closed.Load() {
		return Document{}, ErrClosed
	}
	row := documentRow{
		Collection: collection,
		DocID:      uuid.NewString(),
		Data:       string(data),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Document{}, fmt.Errorf("insert into %s: %w", collection, err)
	}
	s.changed(ctx, collection)
	return row.toDocument(), nil
}

func (s *SQLStore) Set(ctx context.Context, collection, id string, data []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	row := documentRow{
		Collection: collection,
		DocID:      id,
		Data:       string(data),
		CreatedAt:  time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	s.changed(ctx, collection)
	return nil
}

func (s *SQLStore) Update(ctx context.Context, collection, id string, data []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	res := s.db.WithContext(ctx).Model(&documentRow{}).
		Where("collection = ? AND doc_id = ?", collection, id).
		Update("data", string(data))
	if res.Error != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.changed(ctx, collection)
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	res := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&documentRow{})
	if res.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.changed(ctx, collection)
	return nil
}

func (s *SQLStore) Listen(ctx context.Context, q Query, onSnapshot func(Snapshot), onError func(error)) (Registration, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	return s.hub.listen(ctx, q, onSnapshot, onError)
}

func (s *SQLStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.hub.close()
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// changed fans the write out. When the shared notifier is down the write has
// already been committed, so this instance still refreshes its own listeners.
func (s *SQLStore) changed(ctx context.Context, collection string) {
	if err := s.notifier.Notify(ctx, collection); err != nil {
		s.log.Warn().Err(err).Str("collection", collection).Msg("change notification failed, refreshing local listeners")
		s.hub.publish(ctx, collection)
	}
}

func (s *SQLStore) load(ctx context.Context, q Query) ([]Document, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	tx := s.db.WithContext(ctx).Where("collection = ?", q.Collection)
	switch q.OrderBy {
	case Descending:
		tx = tx.Order("created_at DESC").Order("seq DESC")
	case Ascending:
		tx = tx.Order("created_at ASC").Order("seq ASC")
	default:
		tx = tx.Order("seq ASC")
	}
	var rows []documentRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load %s: %w", q.Collection, err)
	}
	out := make([]Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDocument())
	}
	return out, nil
}
