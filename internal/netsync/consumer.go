package netsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/mmo-multipart/internal/eventbus"
	"github.com/annel0/mmo-multipart/internal/logging"
	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/protocol"
)

// Applier восстанавливает клетку из снимка; обычно это *multipart.Manager
type Applier interface {
	Restore(w multipart.World, snap multipart.Snapshot) (*multipart.TileContainer, error)
}

// Consumer слушает PartsChanged других узлов и копит пакеты.
// Применение к миру выполняет ApplyPending в потоке мира.
type Consumer struct {
	mu         sync.Mutex
	queue      []protocol.ChangeBatch
	source     string
	sub        eventbus.Subscription
	serializer *protocol.SnapshotSerializer
	compressor Compressor
	logger     *logging.Logger
}

// NewConsumer подписывается на шину. События собственного source пропускаются.
func NewConsumer(bus eventbus.EventBus, source string, compressor Compressor, logger *logging.Logger) (*Consumer, error) {
	if logger == nil {
		logger = logging.GetSyncLogger()
	}
	c := &Consumer{
		source:     source,
		serializer: protocol.NewSnapshotSerializer(),
		compressor: compressor,
		logger:     logger,
	}
	sub, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{eventbus.EventPartsChanged}}, c.handle)
	if err != nil {
		return nil, fmt.Errorf("подписка на %s: %w", eventbus.EventPartsChanged, err)
	}
	c.sub = sub
	return c, nil
}

func (c *Consumer) handle(ctx context.Context, ev *eventbus.Envelope) {
	if ev.Source == c.source {
		return
	}
	comp, err := compressorFor(ev.Metadata["compression"], c.compressor)
	if err != nil {
		c.logger.Warn("Consumer: событие %s от %s: %v", ev.ID, ev.Source, err)
		return
	}
	raw, err := comp.Decompress(ev.Payload)
	if err != nil {
		c.logger.Warn("Consumer: распаковка %s: %v", ev.ID, err)
		return
	}
	batch, err := c.serializer.DecodeBatch(raw)
	if err != nil {
		c.logger.Warn("Consumer: декодирование %s: %v", ev.ID, err)
		return
	}
	c.logger.Debug("Consumer: пакет тика %d от %s, клеток %d", batch.Tick, ev.Source, len(batch.Cells))

	c.mu.Lock()
	c.queue = append(c.queue, batch)
	c.mu.Unlock()
}

// ApplyPending применяет накопленные пакеты к миру в порядке получения.
// Возвращает число восстановленных клеток; ошибочные клетки пропускаются.
func (c *Consumer) ApplyPending(w multipart.World, applier Applier) int {
	c.mu.Lock()
	batches := c.queue
	c.queue = nil
	c.mu.Unlock()

	applied := 0
	for _, batch := range batches {
		for _, snap := range batch.Cells {
			if _, err := applier.Restore(w, snap); err != nil {
				c.logger.Warn("Consumer: клетка %s тика %d: %v", snap.Pos, batch.Tick, err)
				continue
			}
			applied++
		}
	}
	return applied
}

// Stop отписывается от шины
func (c *Consumer) Stop() { c.sub.Unsubscribe() }
