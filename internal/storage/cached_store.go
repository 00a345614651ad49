package storage

import (
	"context"
	"time"

	"github.com/annel0/mmo-multipart/internal/cache"
	"github.com/annel0/mmo-multipart/internal/logging"
	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/vec"
)

// CachedStore реализует cache-aside над SnapshotRepo.
// Чтение идёт сначала в кеш, запись – в хранилище, затем в кеш.
// С инвалидатором другие узлы узнают о перезаписанных клетках.
type CachedStore struct {
	repo        SnapshotRepo
	cache       cache.CacheRepo
	invalidator cache.CacheInvalidator
	codec       *Codec
	ttl         time.Duration
	logger      *logging.Logger
}

// NewCachedStore оборачивает repo кешем. invalidator может быть nil.
func NewCachedStore(repo SnapshotRepo, c cache.CacheRepo, invalidator cache.CacheInvalidator, ttl time.Duration, logger *logging.Logger) (*CachedStore, error) {
	codec, err := NewCodec()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetStorageLogger()
	}
	return &CachedStore{
		repo:        repo,
		cache:       c,
		invalidator: invalidator,
		codec:       codec,
		ttl:         ttl,
		logger:      logger,
	}, nil
}

// Subscribe начинает принимать инвалидации других узлов
func (s *CachedStore) Subscribe(ctx context.Context) error {
	if s.invalidator == nil {
		return nil
	}
	return s.invalidator.SubscribeInvalidations(ctx, s.HandleInvalidation)
}

// HandleInvalidation удаляет ключ из локального кеша
func (s *CachedStore) HandleInvalidation(key string) error {
	return s.cache.Delete(context.Background(), key)
}

func (s *CachedStore) Save(ctx context.Context, snap multipart.Snapshot) error {
	return s.BatchSave(ctx, []multipart.Snapshot{snap})
}

func (s *CachedStore) BatchSave(ctx context.Context, snaps []multipart.Snapshot) error {
	if err := s.repo.BatchSave(ctx, snaps); err != nil {
		return err
	}
	for _, snap := range snaps {
		s.refresh(ctx, snap)
	}
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, pos vec.Vec3) error {
	return s.BatchSave(ctx, []multipart.Snapshot{{Pos: pos}})
}

// refresh обновляет кеш после записи. Ошибки кеша не фатальны.
func (s *CachedStore) refresh(ctx context.Context, snap multipart.Snapshot) {
	key := Key(snap.Pos)
	if snap.Empty() {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Кеш: удаление %s: %v", key, err)
		}
	} else if data, err := s.codec.Encode(snap); err == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("Кеш: запись %s: %v", key, err)
		}
	}
	if s.invalidator != nil {
		if err := s.invalidator.PublishInvalidation(ctx, key); err != nil {
			s.logger.Warn("Кеш: инвалидация %s: %v", key, err)
		}
	}
}

func (s *CachedStore) Load(ctx context.Context, pos vec.Vec3) (multipart.Snapshot, bool, error) {
	key := Key(pos)
	data, err := s.cache.Get(ctx, key)
	if err == nil {
		snap, decErr := s.codec.Decode(data)
		if decErr == nil {
			return snap, true, nil
		}
		s.logger.Warn("Кеш: повреждённая запись %s: %v", key, decErr)
	} else if !cache.IsCacheMiss(err) {
		s.logger.Warn("Кеш: чтение %s: %v", key, err)
	}

	snap, ok, err := s.repo.Load(ctx, pos)
	if err != nil || !ok {
		return snap, ok, err
	}
	if data, encErr := s.codec.Encode(snap); encErr == nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn("Кеш: запись %s: %v", key, err)
		}
	}
	return snap, true, nil
}

// ForEach читает напрямую из хранилища
func (s *CachedStore) ForEach(ctx context.Context, fn func(multipart.Snapshot) error) error {
	return s.repo.ForEach(ctx, fn)
}

// Close освобождает кодек; хранилище и кеш закрывает владелец
func (s *CachedStore) Close() {
	s.codec.Close()
}
