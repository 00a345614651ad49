package multipart

import (
	"github.com/annel0/mmo-multipart/internal/physics"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// RayTrace пересекает луч с частями клетки
func (m *Manager) RayTrace(w World, pos vec.Vec3, start, end vec.Vec3Float) *physics.RayHit {
	c, ok := m.View(w, pos)
	if !ok {
		return nil
	}
	return RayTrace(c, start, end)
}

func (m *Manager) hitPart(w World, pos vec.Vec3, start, end vec.Vec3Float) (*PartInfo, *physics.RayHit, bool) {
	c, ok := m.View(w, pos)
	if !ok {
		return nil, nil, false
	}
	hit := RayTrace(c, start, end)
	p, ok := HitPart(c, hit)
	return p, hit, ok
}

// Break разрушает часть, в которую смотрит луч actor'а. Остальные части
// клетки остаются на месте. На неавторитетной стороне только проверяет право.
func (m *Manager) Break(w World, pos vec.Vec3, actor Actor, start, end vec.Vec3Float) bool {
	p, _, ok := m.hitPart(w, pos, start, end)
	if !ok {
		return false
	}
	if !p.behavior.CanPlayerDestroy(p, actor) {
		return false
	}
	if w.IsRemote() {
		return true
	}

	p.behavior.Harvested(p, actor)
	if !actor.Creative {
		if drops := p.behavior.Drops(p); len(drops) > 0 {
			w.SpawnDrops(pos, drops)
		}
	}
	if err := p.Remove(); err != nil {
		m.log.Warn("Часть %s в %s не удалена после разрушения: %v", p.slot, pos, err)
		return false
	}
	m.log.Debug("%s разрушил %s в слоте %s клетки %s", actor.Name, p.state, p.slot, pos)
	return true
}

// PlayerRelativeHardness возвращает долю прочности части, снимаемую за тик
func (m *Manager) PlayerRelativeHardness(w World, pos vec.Vec3, actor Actor, start, end vec.Vec3Float) float64 {
	p, _, ok := m.hitPart(w, pos, start, end)
	if !ok {
		return 0
	}
	hardness := p.behavior.Hardness(p)
	switch {
	case hardness < 0:
		return 0
	case actor.Creative || hardness == 0:
		return 1
	default:
		return 1 / hardness / 30
	}
}

// PickPart возвращает предмет части под лучом
func (m *Manager) PickPart(w World, pos vec.Vec3, actor Actor, start, end vec.Vec3Float) (block.Stack, bool) {
	p, hit, ok := m.hitPart(w, pos, start, end)
	if !ok {
		return block.Stack{}, false
	}
	return p.behavior.PickPart(p, hit, actor), true
}
