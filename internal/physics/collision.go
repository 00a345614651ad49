package physics

import (
	"math"

	"github.com/annel0/mmo-multipart/internal/vec"
)

// epsilon гасит погрешность при сравнении граней соприкасающихся боксов
const epsilon = 1e-7

// AABB задаёт выровненный по осям бокс в локальных координатах клетки (0..1)
type AABB struct {
	Min vec.Vec3Float `json:"min"`
	Max vec.Vec3Float `json:"max"`
}

// NewAABB создаёт бокс, упорядочивая углы по каждой оси
func NewAABB(x1, y1, z1, x2, y2, z2 float64) AABB {
	return AABB{
		Min: vec.Vec3Float{X: math.Min(x1, x2), Y: math.Min(y1, y2), Z: math.Min(z1, z2)},
		Max: vec.Vec3Float{X: math.Max(x1, x2), Y: math.Max(y1, y2), Z: math.Max(z1, z2)},
	}
}

// IsEmpty сообщает, что бокс не имеет объёма
func (b AABB) IsEmpty() bool {
	return b.Max.X-b.Min.X <= epsilon || b.Max.Y-b.Min.Y <= epsilon || b.Max.Z-b.Min.Z <= epsilon
}

// Volume возвращает объём бокса
func (b AABB) Volume() float64 {
	if b.IsEmpty() {
		return 0
	}
	return (b.Max.X - b.Min.X) * (b.Max.Y - b.Min.Y) * (b.Max.Z - b.Min.Z)
}

// Offset сдвигает бокс на вектор
func (b AABB) Offset(d vec.Vec3Float) AABB {
	return AABB{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

// Intersects проверяет пересечение объёмов двух боксов.
// Боксы, которые только касаются гранями, не пересекаются.
func (b AABB) Intersects(other AABB) bool {
	return b.Min.X < other.Max.X-epsilon && b.Max.X > other.Min.X+epsilon &&
		b.Min.Y < other.Max.Y-epsilon && b.Max.Y > other.Min.Y+epsilon &&
		b.Min.Z < other.Max.Z-epsilon && b.Max.Z > other.Min.Z+epsilon
}

// Contains проверяет, лежит ли точка внутри бокса (границы включительно)
func (b AABB) Contains(p vec.Vec3Float) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Union возвращает наименьший бокс, содержащий оба
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: vec.Vec3Float{X: math.Min(b.Min.X, other.Min.X), Y: math.Min(b.Min.Y, other.Min.Y), Z: math.Min(b.Min.Z, other.Min.Z)},
		Max: vec.Vec3Float{X: math.Max(b.Max.X, other.Max.X), Y: math.Max(b.Max.Y, other.Max.Y), Z: math.Max(b.Max.Z, other.Max.Z)},
	}
}

// TouchesFace сообщает, что бокс прилегает к указанной грани клетки
func (b AABB) TouchesFace(face vec.Face) bool {
	axis := face.Axis()
	if face.Positive() {
		return b.Max.Axis(axis) >= 1-epsilon
	}
	return b.Min.Axis(axis) <= epsilon
}
