package multipart

import (
	"fmt"

	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// PartSnapshot сохраняет одну часть
type PartSnapshot struct {
	Slot   string            `json:"slot"`
	SlotID slot.ID           `json:"slot_id"`
	State  block.State       `json:"state"`
	Tile   map[string]string `json:"tile,omitempty"`
}

// Snapshot сохраняет клетку-контейнер целиком
type Snapshot struct {
	Pos   vec.Vec3       `json:"pos"`
	Parts []PartSnapshot `json:"parts"`
}

// Empty сообщает, что в снимке нет частей
func (s Snapshot) Empty() bool {
	return len(s.Parts) == 0
}

// Snap снимает содержимое контейнера
func Snap(c Container) Snapshot {
	snap := Snapshot{}
	if c == nil {
		return snap
	}
	snap.Pos = c.Pos()
	for _, p := range c.Parts() {
		ps := PartSnapshot{
			Slot:   p.slot.Name(),
			SlotID: p.slotID,
			State:  p.state,
		}
		if t := p.Tile(); t != nil {
			ps.Tile = t.Snapshot()
		}
		snap.Parts = append(snap.Parts, ps)
	}
	return snap
}

// SnapshotAt снимает клетку мира; false, если в ней нет частей
func (m *Manager) SnapshotAt(w World, pos vec.Vec3) (Snapshot, bool) {
	c, ok := m.View(w, pos)
	if !ok {
		return Snapshot{Pos: pos}, false
	}
	return Snap(c), true
}

// Restore устанавливает контейнер из снимка. Слоты ищутся по имени,
// части проверяются на совместимость так же, как при добавлении.
// Пустой снимок очищает клетку.
func (m *Manager) Restore(w World, snap Snapshot) (*TileContainer, error) {
	if snap.Empty() {
		w.SetState(snap.Pos, block.Air)
		w.SetCompanion(snap.Pos, nil)
		return nil, nil
	}

	c := newTileContainer(m, w, snap.Pos, true)
	for _, ps := range snap.Parts {
		s, ok := m.slots.ByName(ps.Slot)
		if !ok {
			return nil, fmt.Errorf("слот %q: %w", ps.Slot, ErrUnknownSlot)
		}
		beh, ok := m.types.Resolve(ps.State)
		if !ok {
			return nil, fmt.Errorf("%s: %w", ps.State, ErrUnresolvableState)
		}
		tile := beh.CreateTile(w, snap.Pos, ps.State)
		if tile != nil && ps.Tile != nil {
			if err := tile.Restore(ps.Tile); err != nil {
				return nil, fmt.Errorf("тайл %s в слоте %s: %w", ps.State, ps.Slot, err)
			}
		}
		p, err := c.candidate(s, ps.State, tile)
		if err != nil {
			return nil, err
		}
		c.insert(p)
	}

	c.detached = false
	w.SetCompanion(snap.Pos, c)
	c.syncState()
	return c, nil
}
