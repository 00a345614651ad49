package multipart

import (
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// NeighborChanged сообщает всем частям клетки об изменении соседа
func (m *Manager) NeighborChanged(w World, pos, from vec.Vec3) {
	c, ok := m.View(w, pos)
	if !ok {
		return
	}
	for _, p := range c.Parts() {
		p.behavior.NeighborChanged(p, from)
	}
}

// UpdatePostPlacement даёт каждой части пересчитать состояние после
// изменения соседа со стороны face
func (m *Manager) UpdatePostPlacement(w World, pos vec.Vec3, face vec.Face, neighbor block.State) {
	c, ok := m.View(w, pos)
	if !ok {
		return
	}
	for _, p := range c.Parts() {
		next := p.behavior.UpdatePostPlacement(p, face, neighbor)
		if next == p.state {
			continue
		}
		if err := p.SetState(next); err != nil {
			m.log.Warn("Обновление %s в слоте %s клетки %s: %v", p.state, p.slot, pos, err)
		}
	}
}

// FillWithRain передаёт дождь всем частям клетки
func (m *Manager) FillWithRain(w World, pos vec.Vec3) {
	c, ok := m.View(w, pos)
	if !ok {
		return
	}
	for _, p := range c.Parts() {
		p.behavior.FillWithRain(p)
	}
}

// Tick вызывает тайлы частей, которым нужен тик
func (m *Manager) Tick(w World, pos vec.Vec3) {
	c, ok := m.View(w, pos)
	if !ok {
		return
	}
	for _, p := range c.Parts() {
		if t, ok := p.Tile().(Ticker); ok {
			t.Tick(p)
		}
	}
}
