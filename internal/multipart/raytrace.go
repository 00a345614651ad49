package multipart

import (
	"github.com/annel0/mmo-multipart/internal/physics"
	"github.com/annel0/mmo-multipart/internal/vec"
)

// RayTrace находит ближайшую к началу луча часть. Попадание помечается
// идентификатором слота в SubHit; при равных расстояниях выигрывает
// меньший идентификатор. nil, если луч не задел ни одну часть.
func RayTrace(c Container, start, end vec.Vec3Float) *physics.RayHit {
	var best *physics.RayHit
	for _, p := range partsOf(c) {
		base := p.behavior.Shape(p).RayTrace(p.pos, start, end)
		hit := p.behavior.RayTrace(p, start, end, base)
		if hit == nil {
			continue
		}
		dist := hit.Point.DistanceTo(start)
		if best != nil && dist >= best.Distance {
			continue
		}
		best = &physics.RayHit{
			Point:    hit.Point,
			Face:     hit.Face,
			Pos:      p.pos,
			Distance: dist,
			SubHit:   int(p.slotID),
			Info:     hit,
		}
	}
	return best
}

// HitPart возвращает часть, в которую пришлось попадание
func HitPart(c Container, hit *physics.RayHit) (*PartInfo, bool) {
	if hit == nil || hit.SubHit < 0 {
		return nil, false
	}
	for _, p := range partsOf(c) {
		if int(p.slotID) == hit.SubHit {
			return p, true
		}
	}
	return nil, false
}
