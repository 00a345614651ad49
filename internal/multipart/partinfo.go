package multipart

import (
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// PartInfo связывает часть с её местом: мир, клетка, слот, состояние,
// поведение и тайл. Создаётся контейнером.
type PartInfo struct {
	world     World
	pos       vec.Vec3
	slot      *slot.Slot
	slotID    slot.ID
	state     block.State
	behavior  Behavior
	tile      Tile
	lazyTile  func() Tile
	container Container
}

func (p *PartInfo) World() World         { return p.world }
func (p *PartInfo) Pos() vec.Vec3        { return p.pos }
func (p *PartInfo) Slot() *slot.Slot     { return p.slot }
func (p *PartInfo) SlotID() slot.ID      { return p.slotID }
func (p *PartInfo) State() block.State   { return p.state }
func (p *PartInfo) Behavior() Behavior   { return p.behavior }
func (p *PartInfo) Container() Container { return p.container }

// Tile возвращает тайл части. Для обычной клетки он создаётся при первом обращении.
func (p *PartInfo) Tile() Tile {
	if p.tile == nil && p.lazyTile != nil {
		return p.lazyTile()
	}
	return p.tile
}

// SetState заменяет состояние части. Air удаляет часть.
func (p *PartInfo) SetState(state block.State) error {
	return p.container.SetPartState(p.slot, state)
}

// Remove удаляет часть из контейнера
func (p *PartInfo) Remove() error {
	return p.container.Remove(p.slot)
}

// ReceivedPower возвращает наибольшую слабую мощность, которую соседние
// клетки подают в клетку части
func (p *PartInfo) ReceivedPower() int {
	m := p.manager()
	if m == nil {
		return 0
	}
	power := 0
	for _, f := range vec.Faces {
		if c, ok := m.View(p.world, p.pos.Offset(f)); ok {
			power = max(power, WeakPower(c, f))
		}
	}
	return power
}

func (p *PartInfo) manager() *Manager {
	switch c := p.container.(type) {
	case *TileContainer:
		return c.mgr
	case *implicitView:
		return c.mgr
	}
	return nil
}

// occlusion возвращает объём, которым часть занимает клетку
func (p *PartInfo) occlusion() footprint {
	fp := footprint{slots: []*slot.Slot{p.slot}}
	if c, ok := p.behavior.(SlotClaimer); ok {
		fp.slots = append(fp.slots, c.ClaimedSlots(p)...)
	}
	if o, ok := p.behavior.(Occluder); ok {
		fp.shape = o.OcclusionShape(p)
	} else {
		fp.shape = p.behavior.Shape(p)
	}
	return fp
}
