package app

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/mmo-multipart/internal/logging"
	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/netsync"
	"github.com/annel0/mmo-multipart/internal/storage"
	"github.com/annel0/mmo-multipart/internal/world"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// Deps собирает компоненты узла. Notifier, Consumer и Store могут быть nil.
type Deps struct {
	World    *world.World
	Manager  *multipart.Manager
	Notifier *netsync.Notifier
	Consumer *netsync.Consumer
	Store    storage.SnapshotRepo
	Logger   *logging.Logger
}

// Server крутит цикл тиков одного мира. Все обращения к миру идут из Step.
type Server struct {
	world    *world.World
	manager  *multipart.Manager
	notifier *netsync.Notifier
	consumer *netsync.Consumer
	store    storage.SnapshotRepo
	logger   *logging.Logger
	tick     uint64
}

// NewServer собирает узел из зависимостей
func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = logging.GetComponentLogger("server")
	}
	return &Server{
		world:    d.World,
		manager:  d.Manager,
		notifier: d.Notifier,
		consumer: d.Consumer,
		store:    d.Store,
		logger:   d.Logger,
	}
}

// CurrentTick возвращает номер следующего тика
func (s *Server) CurrentTick() uint64 { return s.tick }

// Restore загружает все сохранённые контейнеры в мир.
// Повреждённые клетки пропускаются с предупреждением.
func (s *Server) Restore(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	restored := 0
	err := s.store.ForEach(ctx, func(snap multipart.Snapshot) error {
		if _, err := s.manager.Restore(s.world, snap); err != nil {
			s.logger.Warn("Клетка %s не восстановлена: %v", snap.Pos, err)
			return nil
		}
		restored++
		return nil
	})
	if err != nil {
		return restored, fmt.Errorf("восстановление контейнеров: %w", err)
	}
	s.logger.Info("📦 Восстановлено контейнеров: %d", restored)
	return restored, nil
}

// Step выполняет один тик: применяет входящие изменения, тикает тайлы,
// рассылает изменённые клетки и сохраняет их.
func (s *Server) Step(ctx context.Context) error {
	tick := s.tick
	s.tick++

	if s.consumer != nil {
		if n := s.consumer.ApplyPending(s.world, s.manager); n > 0 {
			s.logger.Debug("Тик %d: применено %d клеток других узлов", tick, n)
		}
	}

	if !s.world.IsRemote() {
		for _, pos := range s.world.CellsOfType(block.ContainerType) {
			if s.world.State(pos).Bool("ticking") {
				s.manager.Tick(s.world, pos)
			}
		}
	}

	for _, d := range s.world.TakeDrops() {
		s.logger.Debug("Тик %d: выпало %v в %s", tick, d.Stacks, d.Position)
	}

	if s.notifier == nil {
		return nil
	}
	flushed, err := s.notifier.Flush(ctx, tick, s.manager)
	if err != nil {
		s.logger.Warn("Тик %d: рассылка: %v", tick, err)
	}
	if s.store != nil && len(flushed) > 0 {
		if err := s.store.BatchSave(ctx, flushed); err != nil {
			return fmt.Errorf("тик %d: сохранение: %w", tick, err)
		}
	}
	return nil
}

// Run вызывает Step с заданным периодом до отмены контекста.
// Ошибки сохранения логируются и не останавливают цикл.
func (s *Server) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Step(ctx); err != nil {
				s.logger.Error("%v", err)
			}
		}
	}
}
