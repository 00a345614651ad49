package physics

import (
	"math"

	"github.com/annel0/mmo-multipart/internal/vec"
)

// RayHit описывает попадание луча в форму клетки
type RayHit struct {
	Point    vec.Vec3Float // Мировые координаты точки попадания
	Face     vec.Face      // Грань бокса, через которую вошёл (или вышел) луч
	Pos      vec.Vec3      // Клетка
	Distance float64       // Расстояние от начала луча до точки

	// SubHit хранит регистрационный номер слота части, в которую попал луч.
	// -1, пока попадание не привязано к слоту.
	SubHit int
	// исходное попадание, которое вернула сама часть
	Info *RayHit
}

// RayTrace пересекает отрезок start→end (мировые координаты) с формой,
// расположенной в клетке pos. Возвращает ближайшее попадание или nil.
func (s Shape) RayTrace(pos vec.Vec3, start, end vec.Vec3Float) *RayHit {
	origin := pos.ToFloat()
	localStart := start.Sub(origin)
	dir := end.Sub(start)

	var best *RayHit
	bestT := math.Inf(1)
	for _, b := range s.boxes {
		t, face, ok := intersectSegment(b, localStart, dir)
		if !ok || t >= bestT {
			continue
		}
		bestT = t
		point := start.Add(dir.Mul(t))
		best = &RayHit{
			Point:    point,
			Face:     face,
			Pos:      pos,
			Distance: point.DistanceTo(start),
			SubHit:   -1,
		}
	}
	return best
}

// intersectSegment выполняет slab-тест отрезка s + t*d, t ∈ [0, 1] против бокса.
// Если отрезок начинается внутри бокса, попаданием считается точка выхода.
func intersectSegment(b AABB, s, d vec.Vec3Float) (float64, vec.Face, bool) {
	tEnter := math.Inf(-1)
	tExit := math.Inf(1)
	var enterFace, exitFace vec.Face

	for axis := 0; axis < 3; axis++ {
		so := s.Axis(axis)
		do := d.Axis(axis)
		lo := b.Min.Axis(axis)
		hi := b.Max.Axis(axis)

		if math.Abs(do) < epsilon {
			if so < lo || so > hi {
				return 0, 0, false
			}
			continue
		}

		t1 := (lo - so) / do
		t2 := (hi - so) / do
		face := negativeFace(axis)
		if t1 > t2 {
			t1, t2 = t2, t1
			face = face.Opposite()
		}
		if t1 > tEnter {
			tEnter = t1
			enterFace = face
		}
		if t2 < tExit {
			tExit = t2
			exitFace = face.Opposite()
		}
		if tEnter > tExit {
			return 0, 0, false
		}
	}

	switch {
	case tEnter >= 0 && tEnter <= 1:
		return tEnter, enterFace, true
	case tEnter < 0 && tExit >= 0 && tExit <= 1:
		return tExit, exitFace, true
	}
	return 0, 0, false
}

func negativeFace(axis int) vec.Face {
	switch axis {
	case 0:
		return vec.FaceWest
	case 1:
		return vec.FaceDown
	default:
		return vec.FaceNorth
	}
}
