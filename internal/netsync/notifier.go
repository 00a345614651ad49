package netsync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/annel0/mmo-multipart/internal/eventbus"
	"github.com/annel0/mmo-multipart/internal/logging"
	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/protocol"
	"github.com/annel0/mmo-multipart/internal/vec"
)

// Snapshotter снимает клетку мира; обычно это *multipart.Manager
type Snapshotter interface {
	SnapshotAt(w multipart.World, pos vec.Vec3) (multipart.Snapshot, bool)
}

type cellKey struct {
	world multipart.World
	pos   vec.Vec3
}

// Notifier рассылает изменения ядра по сети. Копит изменённые клетки между тиками
// и рассылает их одним пакетом в шину событий.
// PartsChanged вызывается из потока мира, Flush – из цикла тиков или отдельной горутины.
type Notifier struct {
	mu      sync.Mutex
	pending map[cellKey]struct{}
	sent    map[cellKey]uint64 // отпечаток последнего разосланного снимка клетки

	bus        eventbus.EventBus
	source     string
	serializer *protocol.SnapshotSerializer
	compressor Compressor
	logger     *logging.Logger
}

// NewNotifier создаёт уведомитель. compressor и logger могут быть nil.
func NewNotifier(bus eventbus.EventBus, source string, compressor Compressor, logger *logging.Logger) *Notifier {
	if compressor == nil {
		compressor = NewPassthroughCompressor()
	}
	if logger == nil {
		logger = logging.GetSyncLogger()
	}
	return &Notifier{
		pending:    make(map[cellKey]struct{}),
		sent:       make(map[cellKey]uint64),
		bus:        bus,
		source:     source,
		serializer: protocol.NewSnapshotSerializer(),
		compressor: compressor,
		logger:     logger,
	}
}

// PartsChanged помечает клетку как изменённую. Повторные вызовы до Flush схлопываются.
func (n *Notifier) PartsChanged(w multipart.World, pos vec.Vec3) {
	n.mu.Lock()
	n.pending[cellKey{world: w, pos: pos}] = struct{}{}
	n.mu.Unlock()
}

// Pending возвращает число клеток, ожидающих рассылки
func (n *Notifier) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

func (n *Notifier) take() []cellKey {
	n.mu.Lock()
	defer n.mu.Unlock()
	keys := make([]cellKey, 0, len(n.pending))
	for k := range n.pending {
		keys = append(keys, k)
	}
	n.pending = make(map[cellKey]struct{})

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i].pos, keys[j].pos
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return keys
}

// Flush снимает все помеченные клетки, отбрасывает неизменившиеся с прошлой
// рассылки и публикует остальные одним событием PartsChanged.
// Возвращает разосланные снимки (пустой снимок – клетка перестала быть контейнером).
func (n *Notifier) Flush(ctx context.Context, tick uint64, snapper Snapshotter) ([]multipart.Snapshot, error) {
	keys := n.take()
	if len(keys) == 0 {
		return nil, nil
	}

	ctx, span := otel.Tracer("multipart/netsync").Start(ctx, "netsync.Flush")
	defer span.End()
	span.SetAttributes(attribute.Int64("multipart.tick", int64(tick)), attribute.Int("multipart.dirty", len(keys)))

	var (
		cells     []multipart.Snapshot
		published []cellKey
	)
	for _, k := range keys {
		snap, _ := snapper.SnapshotAt(k.world, k.pos)
		data, err := n.serializer.EncodeSnapshot(snap)
		if err != nil {
			n.logger.Warn("Не удалось закодировать снимок %s: %v", k.pos, err)
			continue
		}
		sum := xxhash.Sum64(data)

		n.mu.Lock()
		prev, seen := n.sent[k]
		unchanged := seen && prev == sum
		if !unchanged {
			n.sent[k] = sum
		}
		n.mu.Unlock()

		if unchanged {
			continue
		}
		cells = append(cells, snap)
		published = append(published, k)
	}
	span.SetAttributes(attribute.Int("multipart.published", len(cells)))
	if len(cells) == 0 {
		return nil, nil
	}

	if err := n.publish(ctx, tick, cells); err != nil {
		// клетки возвращаются в очередь, следующий Flush повторит рассылку
		n.mu.Lock()
		for _, k := range published {
			delete(n.sent, k)
		}
		for _, k := range keys {
			n.pending[k] = struct{}{}
		}
		n.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return cells, err
	}
	n.logger.Debug("Тик %d: разослано %d клеток из %d", tick, len(cells), len(keys))
	return cells, nil
}

func (n *Notifier) publish(ctx context.Context, tick uint64, cells []multipart.Snapshot) error {
	now := time.Now().UTC()
	payload, err := n.serializer.EncodeBatch(protocol.ChangeBatch{Tick: tick, Timestamp: now, Cells: cells})
	if err != nil {
		return err
	}
	payload, err = n.compressor.Compress(payload)
	if err != nil {
		return fmt.Errorf("сжатие пакета тика %d: %w", tick, err)
	}

	env := &eventbus.Envelope{
		ID:            uuid.NewString(),
		Timestamp:     now,
		Source:        n.source,
		EventType:     eventbus.EventPartsChanged,
		Version:       1,
		CorrelationID: fmt.Sprintf("tick-%d", tick),
		Priority:      5,
		Payload:       payload,
		Metadata:      map[string]string{"compression": n.compressor.Name()},
	}
	if err := n.bus.Publish(ctx, env); err != nil {
		return fmt.Errorf("публикация тика %d: %w", tick, err)
	}
	return nil
}
