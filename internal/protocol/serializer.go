package protocol

import (
	"errors"
	"fmt"
	"time"

	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrMalformed возвращается, когда полезная нагрузка не похожа на снимок
var ErrMalformed = errors.New("повреждённая полезная нагрузка")

// ChangeBatch содержит изменения клеток за один тик
type ChangeBatch struct {
	Tick      uint64
	Timestamp time.Time
	Cells     []multipart.Snapshot
}

// SnapshotSerializer кодирует снимки клеток в Protocol Buffers (google.protobuf.Struct).
// Пустой список частей означает, что клетка стала обычной или воздухом.
type SnapshotSerializer struct{}

// deterministic упорядочивает ключи map-полей: одинаковый снимок всегда даёт одинаковые байты
var deterministic = proto.MarshalOptions{Deterministic: true}

// NewSnapshotSerializer создает новый сериализатор снимков
func NewSnapshotSerializer() *SnapshotSerializer {
	return &SnapshotSerializer{}
}

// EncodeSnapshot сериализует один снимок
func (ss *SnapshotSerializer) EncodeSnapshot(snap multipart.Snapshot) ([]byte, error) {
	st, err := structpb.NewStruct(snapshotMap(snap))
	if err != nil {
		return nil, fmt.Errorf("ошибка построения снимка %s: %w", snap.Pos, err)
	}
	data, err := deterministic.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка %s: %w", snap.Pos, err)
	}
	return data, nil
}

// DecodeSnapshot десериализует снимок
func (ss *SnapshotSerializer) DecodeSnapshot(data []byte) (multipart.Snapshot, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return multipart.Snapshot{}, fmt.Errorf("ошибка десериализации снимка: %w", err)
	}
	return snapshotFromStruct(st)
}

// EncodeBatch сериализует пакет изменений тика
func (ss *SnapshotSerializer) EncodeBatch(batch ChangeBatch) ([]byte, error) {
	cells := make([]any, 0, len(batch.Cells))
	for _, snap := range batch.Cells {
		cells = append(cells, snapshotMap(snap))
	}
	st, err := structpb.NewStruct(map[string]any{
		"tick":      float64(batch.Tick),
		"timestamp": batch.Timestamp.UTC().Format(time.RFC3339Nano),
		"cells":     cells,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка построения пакета тика %d: %w", batch.Tick, err)
	}
	return deterministic.Marshal(st)
}

// DecodeBatch десериализует пакет изменений
func (ss *SnapshotSerializer) DecodeBatch(data []byte) (ChangeBatch, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return ChangeBatch{}, fmt.Errorf("ошибка десериализации пакета: %w", err)
	}

	batch := ChangeBatch{Tick: uint64(st.GetFields()["tick"].GetNumberValue())}
	if raw := st.GetFields()["timestamp"].GetStringValue(); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return ChangeBatch{}, fmt.Errorf("timestamp %q: %w", raw, ErrMalformed)
		}
		batch.Timestamp = ts
	}
	for i, v := range st.GetFields()["cells"].GetListValue().GetValues() {
		cell := v.GetStructValue()
		if cell == nil {
			return ChangeBatch{}, fmt.Errorf("клетка #%d: %w", i, ErrMalformed)
		}
		snap, err := snapshotFromStruct(cell)
		if err != nil {
			return ChangeBatch{}, fmt.Errorf("клетка #%d: %w", i, err)
		}
		batch.Cells = append(batch.Cells, snap)
	}
	return batch, nil
}

func snapshotMap(snap multipart.Snapshot) map[string]any {
	parts := make([]any, 0, len(snap.Parts))
	for _, ps := range snap.Parts {
		part := map[string]any{
			"slot":    ps.Slot,
			"slot_id": float64(ps.SlotID),
			"state":   ps.State.String(),
		}
		if len(ps.Tile) > 0 {
			tile := make(map[string]any, len(ps.Tile))
			for k, v := range ps.Tile {
				tile[k] = v
			}
			part["tile"] = tile
		}
		parts = append(parts, part)
	}
	return map[string]any{
		"pos":   snap.Pos.String(),
		"parts": parts,
	}
}

func snapshotFromStruct(st *structpb.Struct) (multipart.Snapshot, error) {
	fields := st.GetFields()
	posVal, ok := fields["pos"]
	if !ok {
		return multipart.Snapshot{}, fmt.Errorf("нет позиции: %w", ErrMalformed)
	}
	pos, err := vec.ParseVec3(posVal.GetStringValue())
	if err != nil {
		return multipart.Snapshot{}, fmt.Errorf("позиция: %w", errors.Join(ErrMalformed, err))
	}

	snap := multipart.Snapshot{Pos: pos}
	for i, v := range fields["parts"].GetListValue().GetValues() {
		part := v.GetStructValue()
		if part == nil {
			return multipart.Snapshot{}, fmt.Errorf("часть #%d в %s: %w", i, pos, ErrMalformed)
		}
		pf := part.GetFields()
		state, err := block.ParseState(pf["state"].GetStringValue())
		if err != nil {
			return multipart.Snapshot{}, fmt.Errorf("часть #%d в %s: %w", i, pos, errors.Join(ErrMalformed, err))
		}
		ps := multipart.PartSnapshot{
			Slot:   pf["slot"].GetStringValue(),
			SlotID: slot.ID(pf["slot_id"].GetNumberValue()),
			State:  state,
		}
		if tile := pf["tile"].GetStructValue(); tile != nil {
			ps.Tile = make(map[string]string, len(tile.GetFields()))
			for k, tv := range tile.GetFields() {
				ps.Tile[k] = tv.GetStringValue()
			}
		}
		snap.Parts = append(snap.Parts, ps)
	}
	return snap, nil
}
