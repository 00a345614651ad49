package multipart

import (
	"fmt"
	"sync"

	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// implicitView показывает обычную клетку с поведением части как контейнер
// из одной части. Живёт в пределах одного запроса и менеджером не хранится.
type implicitView struct {
	mgr   *Manager
	world World
	pos   vec.Vec3
	info  *PartInfo
}

func (m *Manager) newImplicitView(w World, pos vec.Vec3, state block.State, beh Behavior) (*implicitView, bool) {
	s := beh.SlotFor(state)
	id, ok := m.slots.ID(s)
	if s == nil || !ok {
		return nil, false
	}
	v := &implicitView{mgr: m, world: w, pos: pos}
	v.info = &PartInfo{
		world:     w,
		pos:       pos,
		slot:      s,
		slotID:    id,
		state:     state,
		behavior:  beh,
		lazyTile:  sync.OnceValue(func() Tile { return beh.ConvertTile(w.Companion(pos)) }),
		container: v,
	}
	return v, true
}

func (v *implicitView) World() World  { return v.world }
func (v *implicitView) Pos() vec.Vec3 { return v.pos }

func (v *implicitView) Get(s *slot.Slot) (*PartInfo, bool) {
	if s != v.info.slot {
		return nil, false
	}
	return v.info, true
}

func (v *implicitView) Parts() []*PartInfo {
	return []*PartInfo{v.info}
}

// CanAdd проверяет добавление через общий путь размещения в режиме симуляции
func (v *implicitView) CanAdd(s *slot.Slot, state block.State, _ Tile) bool {
	ok, _ := v.mgr.addPart(v.world, v.pos, s, state, true)
	return ok
}

func (v *implicitView) Add(s *slot.Slot, state block.State, _ Tile) error {
	if v.world.IsRemote() {
		return ErrRemoteWorld
	}
	_, err := v.mgr.addPart(v.world, v.pos, s, state, false)
	return err
}

func (v *implicitView) Remove(s *slot.Slot) error {
	if v.world.IsRemote() {
		return ErrRemoteWorld
	}
	if s != v.info.slot {
		return fmt.Errorf("слот %s в %s: %w", s, v.pos, ErrSlotEmpty)
	}
	v.world.SetState(v.pos, block.Air)
	v.world.SetCompanion(v.pos, nil)
	v.mgr.metrics.removal()
	v.mgr.notifier.PartsChanged(v.world, v.pos)
	return nil
}

func (v *implicitView) SetPartState(s *slot.Slot, state block.State) error {
	if state.IsAir() {
		return v.Remove(s)
	}
	if v.world.IsRemote() {
		return ErrRemoteWorld
	}
	if s != v.info.slot {
		return fmt.Errorf("слот %s в %s: %w", s, v.pos, ErrSlotEmpty)
	}
	v.world.SetState(v.pos, state)
	v.mgr.notifier.PartsChanged(v.world, v.pos)
	return nil
}
