package protocol

import (
	"testing"
	"time"

	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func sampleSnapshot() multipart.Snapshot {
	return multipart.Snapshot{
		Pos: vec.Vec3{X: -3, Y: 64, Z: 17},
		Parts: []multipart.PartSnapshot{
			{Slot: "up", SlotID: 1, State: block.NewState("cover", map[string]string{"face": "up", "material": "glass"})},
			{Slot: "center", SlotID: 6, State: block.NewState("lamp", map[string]string{"lit": "true"}), Tile: map[string]string{"lit_ticks": "42"}},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ss := NewSnapshotSerializer()
	snap := sampleSnapshot()

	data, err := ss.EncodeSnapshot(snap)
	require.NoError(t, err)

	got, err := ss.DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestEmptySnapshot(t *testing.T) {
	ss := NewSnapshotSerializer()
	data, err := ss.EncodeSnapshot(multipart.Snapshot{Pos: vec.Vec3{X: 1, Y: 2, Z: 3}})
	require.NoError(t, err)

	got, err := ss.DecodeSnapshot(data)
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.Equal(t, vec.Vec3{X: 1, Y: 2, Z: 3}, got.Pos)
}

func TestBatchRoundTrip(t *testing.T) {
	ss := NewSnapshotSerializer()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)
	batch := ChangeBatch{
		Tick:      981,
		Timestamp: ts,
		Cells:     []multipart.Snapshot{sampleSnapshot(), {Pos: vec.Vec3{X: 5}}},
	}

	data, err := ss.EncodeBatch(batch)
	require.NoError(t, err)
	got, err := ss.DecodeBatch(data)
	require.NoError(t, err)

	assert.Equal(t, uint64(981), got.Tick)
	assert.True(t, ts.Equal(got.Timestamp))
	require.Len(t, got.Cells, 2)
	assert.Equal(t, batch.Cells[0], got.Cells[0])
	assert.True(t, got.Cells[1].Empty())
}

func TestDecodeMalformed(t *testing.T) {
	ss := NewSnapshotSerializer()

	_, err := ss.DecodeSnapshot([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)

	noPos, err := proto.Marshal(&structpb.Struct{})
	require.NoError(t, err)
	_, err = ss.DecodeSnapshot(noPos)
	assert.ErrorIs(t, err, ErrMalformed)

	st, err := structpb.NewStruct(map[string]any{
		"pos":   "1,2,3",
		"parts": []any{map[string]any{"slot": "up", "state": "cover[face"}},
	})
	require.NoError(t, err)
	badState, err := proto.Marshal(st)
	require.NoError(t, err)
	_, err = ss.DecodeSnapshot(badState)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestEncodingIsStable(t *testing.T) {
	ss := NewSnapshotSerializer()
	snap := sampleSnapshot()
	batch := ChangeBatch{Tick: 3, Timestamp: time.Unix(0, 0).UTC(), Cells: []multipart.Snapshot{snap}}

	snaps := make(map[string]struct{})
	batches := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		data, err := ss.EncodeSnapshot(snap)
		require.NoError(t, err)
		snaps[string(data)] = struct{}{}

		data, err = ss.EncodeBatch(batch)
		require.NoError(t, err)
		batches[string(data)] = struct{}{}
	}
	assert.Len(t, snaps, 1, "одинаковый снимок кодируется одинаковыми байтами")
	assert.Len(t, batches, 1)
}
