package multipart

import (
	"math"

	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/physics"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

const (
	// MaxLightOpacity – полностью непрозрачная клетка
	MaxLightOpacity = 255
)

// InfiniteResistance – взрывоустойчивость неразрушимой клетки
var InfiniteResistance = math.Inf(1)

func partsOf(c Container) []*PartInfo {
	if c == nil {
		return nil
	}
	return c.Parts()
}

// Shape объединяет формы всех частей
func Shape(c Container) physics.Shape {
	var shapes []physics.Shape
	for _, p := range partsOf(c) {
		shapes = append(shapes, p.behavior.Shape(p))
	}
	return physics.Or(shapes...)
}

// CollisionShape объединяет формы столкновений всех частей
func CollisionShape(c Container) physics.Shape {
	var shapes []physics.Shape
	for _, p := range partsOf(c) {
		if col, ok := p.behavior.(Collider); ok {
			shapes = append(shapes, col.CollisionShape(p))
		} else {
			shapes = append(shapes, p.behavior.Shape(p))
		}
	}
	return physics.Or(shapes...)
}

// LightValue берёт максимальную светимость среди частей.
// Повторный вход в ту же клетку в рамках q даёт 0.
func LightValue(c Container, q *Query) int {
	parts := partsOf(c)
	if len(parts) == 0 {
		return 0
	}
	if q == nil {
		q = NewQuery(0)
	}
	pos := c.Pos()
	if !q.enter(pos, QueryLightValue) {
		return 0
	}
	defer q.leave(pos, QueryLightValue)

	value := 0
	for _, p := range parts {
		value = max(value, p.behavior.LightValue(p, q))
	}
	return value
}

// LightOpacity суммирует непрозрачность частей, не больше MaxLightOpacity.
// Повторный вход в ту же клетку в рамках q даёт MaxLightOpacity.
func LightOpacity(c Container, q *Query) int {
	parts := partsOf(c)
	if len(parts) == 0 {
		return 0
	}
	if q == nil {
		q = NewQuery(0)
	}
	pos := c.Pos()
	if !q.enter(pos, QueryLightOpacity) {
		return MaxLightOpacity
	}
	defer q.leave(pos, QueryLightOpacity)

	sum := 0
	for _, p := range parts {
		sum += p.behavior.LightOpacity(p, q)
		if sum >= MaxLightOpacity {
			return MaxLightOpacity
		}
	}
	return sum
}

// FaceParts возвращает части, видимые со стороны грани. Если есть части
// с перекрывающим доступом, учитываются только они.
func FaceParts(c Container, face vec.Face) []*PartInfo {
	var override, merge []*PartInfo
	for _, p := range partsOf(c) {
		switch p.slot.Access(face) {
		case slot.AccessOverride:
			override = append(override, p)
		case slot.AccessMerge:
			merge = append(merge, p)
		}
	}
	if len(override) > 0 {
		return override
	}
	return merge
}

// WeakPower возвращает максимальную слабую мощность частей, обращённых к side
func WeakPower(c Container, side vec.Face) int {
	power := 0
	for _, p := range FaceParts(c, side.Opposite()) {
		power = max(power, p.behavior.WeakPower(p, side))
	}
	return power
}

// StrongPower возвращает максимальную сильную мощность частей, обращённых к side
func StrongPower(c Container, side vec.Face) int {
	power := 0
	for _, p := range FaceParts(c, side.Opposite()) {
		power = max(power, p.behavior.StrongPower(p, side))
	}
	return power
}

// CanConnectRedstone сообщает, соединяется ли хоть одна обращённая к side часть
func CanConnectRedstone(c Container, side vec.Face) bool {
	for _, p := range FaceParts(c, side.Opposite()) {
		if p.behavior.CanConnectRedstone(p, side) {
			return true
		}
	}
	return false
}

// ComparatorOverride возвращает максимальный сигнал компаратора среди частей
func ComparatorOverride(c Container) int {
	value := 0
	for _, p := range partsOf(c) {
		value = max(value, p.behavior.ComparatorOverride(p))
	}
	return value
}

func sumCapped(parts []*PartInfo, f func(p *PartInfo) float64) float64 {
	sum := 0.0
	for _, p := range parts {
		v := f(p)
		if math.IsInf(v, 1) {
			return InfiniteResistance
		}
		sum += v
	}
	if sum > math.MaxFloat64 {
		return InfiniteResistance
	}
	return sum
}

// ExplosionResistance суммирует взрывоустойчивость частей
func ExplosionResistance(c Container) float64 {
	return sumCapped(partsOf(c), func(p *PartInfo) float64 { return p.behavior.ExplosionResistance(p) })
}

// EnchantPowerBonus суммирует бонус зачарования частей
func EnchantPowerBonus(c Container) float64 {
	return sumCapped(partsOf(c), func(p *PartInfo) float64 { return p.behavior.EnchantPowerBonus(p) })
}

// Drops объединяет выпадения всех частей
func Drops(c Container) []block.Stack {
	var drops []block.Stack
	for _, p := range partsOf(c) {
		for _, s := range p.behavior.Drops(p) {
			if !s.IsEmpty() {
				drops = append(drops, s)
			}
		}
	}
	return drops
}

// FaceShape берёт первую определённую форму грани среди обращённых к ней частей
func FaceShape(c Container, face vec.Face) physics.FaceShape {
	for _, p := range FaceParts(c, face) {
		if fs := p.behavior.FaceShape(p, face); fs != physics.FaceShapeUndefined {
			return fs
		}
	}
	return physics.FaceShapeUndefined
}

// HasFlag сообщает, выставлен ли флаг хотя бы у одной части
func HasFlag(c Container, f Flag) bool {
	for _, p := range partsOf(c) {
		if p.behavior.Flag(p, f) {
			return true
		}
	}
	return false
}

// PartsInLayer возвращает части, участвующие в проходе отрисовки
func PartsInLayer(c Container, layer RenderLayer) []*PartInfo {
	var out []*PartInfo
	for _, p := range partsOf(c) {
		if p.behavior.CanRenderInLayer(p, layer) {
			out = append(out, p)
		}
	}
	return out
}
