package netsync

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-multipart/internal/eventbus"
	"github.com/annel0/mmo-multipart/internal/logging"
	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/multipart/parts"
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/protocol"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world"
)

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger("netsync-test", io.Discard, logging.ERROR)
}

type recorder struct {
	mu  sync.Mutex
	evs []*eventbus.Envelope
}

func (r *recorder) handle(_ context.Context, ev *eventbus.Envelope) {
	r.mu.Lock()
	r.evs = append(r.evs, ev)
	r.mu.Unlock()
}

func (r *recorder) events() []*eventbus.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventbus.Envelope(nil), r.evs...)
}

type node struct {
	world    *world.World
	manager  *multipart.Manager
	notifier *Notifier
}

func newNode(bus eventbus.EventBus, source string, remote bool, comp Compressor) *node {
	n := &node{world: world.NewWorld(remote)}
	n.notifier = NewNotifier(bus, source, comp, quietLogger())
	opts := multipart.DefaultOptions()
	opts.Notifier = n.notifier
	opts.Logger = quietLogger()
	n.manager = multipart.NewManager(opts)
	return n
}

var cell = vec.Vec3{X: 4, Y: 70, Z: -2}

func TestFlushPublishesChangedCells(t *testing.T) {
	bus := eventbus.NewMemoryBus(16)
	var rec recorder
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, rec.handle)
	require.NoError(t, err)

	a := newNode(bus, "node-a", false, nil)
	require.NoError(t, a.manager.PlacePart(a.world, cell, slot.Up, parts.CoverState(vec.FaceUp, "stone")))
	require.True(t, a.manager.AddPart(a.world, cell, slot.Center, parts.LampState(false), false))
	assert.Equal(t, 1, a.notifier.Pending())

	flushed, err := a.notifier.Flush(context.Background(), 7, a.manager)
	require.NoError(t, err)
	require.Len(t, flushed, 1)
	assert.Len(t, flushed[0].Parts, 2)
	assert.Zero(t, a.notifier.Pending())

	// повторная пометка без изменений ничего не рассылает
	a.notifier.PartsChanged(a.world, cell)
	flushed, err = a.notifier.Flush(context.Background(), 8, a.manager)
	require.NoError(t, err)
	assert.Empty(t, flushed)

	require.True(t, a.manager.RemovePart(a.world, cell, slot.Center))
	flushed, err = a.notifier.Flush(context.Background(), 9, a.manager)
	require.NoError(t, err)
	require.Len(t, flushed, 1)
	assert.Len(t, flushed[0].Parts, 1)

	require.NoError(t, bus.Close())
	evs := rec.events()
	require.Len(t, evs, 2)
	assert.Equal(t, eventbus.EventPartsChanged, evs[0].EventType)
	assert.Equal(t, "node-a", evs[0].Source)
	assert.Equal(t, "tick-7", evs[0].CorrelationID)
	assert.Equal(t, "none", evs[0].Metadata["compression"])
	assert.NotEqual(t, evs[0].ID, evs[1].ID)

	batch, err := protocol.NewSnapshotSerializer().DecodeBatch(evs[1].Payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), batch.Tick)
	require.Len(t, batch.Cells, 1)
	assert.Equal(t, cell, batch.Cells[0].Pos)
}

func TestConsumerMirrorsRemoteWorld(t *testing.T) {
	comp, err := NewZstdCompressor()
	require.NoError(t, err)

	bus := eventbus.NewMemoryBus(16)
	a := newNode(bus, "node-a", false, comp)
	b := newNode(bus, "node-b", true, nil)

	consumer, err := NewConsumer(bus, "node-b", nil, quietLogger())
	require.NoError(t, err)
	own, err := NewConsumer(bus, "node-a", comp, quietLogger())
	require.NoError(t, err)

	require.NoError(t, a.manager.PlacePart(a.world, cell, slot.North, parts.CoverState(vec.FaceNorth, "glass")))
	require.True(t, a.manager.AddPart(a.world, cell, slot.Center, parts.LampState(true), false))
	_, err = a.notifier.Flush(context.Background(), 1, a.manager)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	assert.Equal(t, 1, consumer.ApplyPending(b.world, b.manager))
	assert.Zero(t, own.ApplyPending(a.world, a.manager), "свои события пропускаются")

	assert.Equal(t, parts.LampState(true), b.manager.GetPartState(b.world, cell, slot.Center))
	assert.Equal(t, parts.CoverState(vec.FaceNorth, "glass"), b.manager.GetPartState(b.world, cell, slot.North))
	assert.Equal(t, 15, b.manager.LightValue(b.world, cell, nil))
}

func TestFlushRequeuesOnPublishError(t *testing.T) {
	bus := eventbus.NewMemoryBus(4)
	a := newNode(bus, "node-a", false, nil)
	require.NoError(t, a.manager.PlacePart(a.world, cell, slot.Center, parts.LampState(false)))
	require.True(t, a.manager.AddPart(a.world, cell, slot.Down, parts.CoverState(vec.FaceDown, "stone"), false))
	require.NoError(t, bus.Close())

	_, err := a.notifier.Flush(context.Background(), 3, a.manager)
	assert.ErrorIs(t, err, eventbus.ErrClosed)
	assert.Equal(t, 1, a.notifier.Pending())
}

func TestCompressorFor(t *testing.T) {
	c, err := compressorFor("", nil)
	require.NoError(t, err)
	assert.Equal(t, "none", c.Name())

	z, err := compressorFor("zstd", nil)
	require.NoError(t, err)
	data := []byte("multipart multipart multipart multipart")
	packed, err := z.Compress(data)
	require.NoError(t, err)
	unpacked, err := z.Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, data, unpacked)

	_, err = compressorFor("lz4", nil)
	assert.Error(t, err)
}

func TestUnchangedCellIsNeverRepublished(t *testing.T) {
	bus := eventbus.NewMemoryBus(16)
	defer bus.Close()

	a := newNode(bus, "node-a", false, nil)
	require.NoError(t, a.manager.PlacePart(a.world, cell, slot.Up, parts.CoverState(vec.FaceUp, "stone")))
	require.True(t, a.manager.AddPart(a.world, cell, slot.Center, parts.LampState(true), false))

	flushed, err := a.notifier.Flush(context.Background(), 1, a.manager)
	require.NoError(t, err)
	require.Len(t, flushed, 1)

	for tick := uint64(2); tick < 22; tick++ {
		a.notifier.PartsChanged(a.world, cell)
		flushed, err = a.notifier.Flush(context.Background(), tick, a.manager)
		require.NoError(t, err)
		assert.Empty(t, flushed, "тик %d", tick)
	}
}

func TestFingerprintsArePerWorld(t *testing.T) {
	bus := eventbus.NewMemoryBus(16)
	defer bus.Close()

	notifier := NewNotifier(bus, "node-a", nil, quietLogger())
	opts := multipart.DefaultOptions()
	opts.Notifier = notifier
	opts.Logger = quietLogger()
	mgr := multipart.NewManager(opts)

	first, second := world.NewWorld(false), world.NewWorld(false)
	require.NoError(t, mgr.PlacePart(first, cell, slot.Up, parts.CoverState(vec.FaceUp, "stone")))
	require.NoError(t, mgr.PlacePart(second, cell, slot.Down, parts.CoverState(vec.FaceDown, "glass")))

	flushed, err := notifier.Flush(context.Background(), 1, mgr)
	require.NoError(t, err)
	assert.Len(t, flushed, 2)

	// та же клетка во втором мире не затирает отпечаток первого
	notifier.PartsChanged(first, cell)
	notifier.PartsChanged(second, cell)
	flushed, err = notifier.Flush(context.Background(), 2, mgr)
	require.NoError(t, err)
	assert.Empty(t, flushed)
}
