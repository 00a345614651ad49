package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/vec"
)

var tracer = otel.Tracer("multipart/storage")

// ContainerStore хранит снимки контейнеров в BadgerDB
type ContainerStore struct {
	db      *badger.DB
	dbPath  string
	codec   *Codec
	mutex   sync.RWMutex
	isReady bool
}

// NewContainerStore открывает хранилище в <dataPath>/multipart
func NewContainerStore(dataPath string) (*ContainerStore, error) {
	dbPath := filepath.Join(dataPath, "multipart")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	codec, err := NewCodec()
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ContainerStore{
		db:      db,
		dbPath:  dbPath,
		codec:   codec,
		isReady: true,
	}, nil
}

// Path возвращает каталог базы
func (s *ContainerStore) Path() string { return s.dbPath }

// Close закрывает хранилище данных
func (s *ContainerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	s.codec.Close()
	return s.db.Close()
}

func (s *ContainerStore) span(ctx context.Context, name string, pos *vec.Vec3) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	if pos != nil {
		span.SetAttributes(attribute.String("multipart.pos", pos.String()))
	}
	return ctx, span
}

// Save сохраняет снимок; пустой снимок удаляет запись
func (s *ContainerStore) Save(ctx context.Context, snap multipart.Snapshot) error {
	return s.BatchSave(ctx, []multipart.Snapshot{snap})
}

// BatchSave сохраняет снимки одной транзакцией
func (s *ContainerStore) BatchSave(ctx context.Context, snaps []multipart.Snapshot) error {
	_, span := s.span(ctx, "storage.BatchSave", nil)
	defer span.End()
	span.SetAttributes(attribute.Int("multipart.cells", len(snaps)))

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrNotReady
	}

	// Кодируем до транзакции, чтобы не держать её открытой
	type entry struct {
		key  []byte
		data []byte
	}
	entries := make([]entry, 0, len(snaps))
	for _, snap := range snaps {
		e := entry{key: []byte(Key(snap.Pos))}
		if !snap.Empty() {
			data, err := s.codec.Encode(snap)
			if err != nil {
				span.RecordError(err)
				return err
			}
			e.data = data
		}
		entries = append(entries, e)
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, e := range entries {
			var err error
			if e.data == nil {
				err = txn.Delete(e.key)
			} else {
				err = txn.Set(e.key, e.data)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Load загружает снимок клетки
func (s *ContainerStore) Load(ctx context.Context, pos vec.Vec3) (multipart.Snapshot, bool, error) {
	_, span := s.span(ctx, "storage.Load", &pos)
	defer span.End()

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return multipart.Snapshot{}, false, ErrNotReady
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(pos)))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return multipart.Snapshot{Pos: pos}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return multipart.Snapshot{}, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	snap, err := s.codec.Decode(data)
	if err != nil {
		return multipart.Snapshot{}, false, fmt.Errorf("клетка %s: %w", pos, err)
	}
	return snap, true, nil
}

// Delete удаляет снимок клетки
func (s *ContainerStore) Delete(ctx context.Context, pos vec.Vec3) error {
	return s.BatchSave(ctx, []multipart.Snapshot{{Pos: pos}})
}

// ForEach обходит все снимки в порядке ключей
func (s *ContainerStore) ForEach(ctx context.Context, fn func(multipart.Snapshot) error) error {
	ctx, span := s.span(ctx, "storage.ForEach", nil)
	defer span.End()

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrNotReady
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			snap, err := s.codec.Decode(data)
			if err != nil {
				return fmt.Errorf("ключ %s: %w", item.Key(), err)
			}
			count++
			if err := fn(snap); err != nil {
				return err
			}
		}
		return nil
	})
	span.SetAttributes(attribute.Int("multipart.cells", count))
	if err != nil {
		span.RecordError(err)
	}
	return err
}
