package physics

import (
	"strconv"

	"github.com/annel0/mmo-multipart/internal/vec"
)

// Shape объединяет боксы. Нулевое значение задаёт пустую форму.
type Shape struct {
	boxes []AABB
}

// Empty возвращает пустую форму
func Empty() Shape {
	return Shape{}
}

// FullCube возвращает форму полной клетки
func FullCube() Shape {
	return Shape{boxes: []AABB{NewAABB(0, 0, 0, 1, 1, 1)}}
}

// Box создаёт форму из одного бокса в долях клетки
func Box(x1, y1, z1, x2, y2, z2 float64) Shape {
	return FromBoxes(NewAABB(x1, y1, z1, x2, y2, z2))
}

// Pixels создаёт форму из одного бокса в шестнадцатых долях клетки
func Pixels(x1, y1, z1, x2, y2, z2 float64) Shape {
	return Box(x1/16, y1/16, z1/16, x2/16, y2/16, z2/16)
}

// FromBoxes создаёт форму из набора боксов, отбрасывая пустые
func FromBoxes(boxes ...AABB) Shape {
	var s Shape
	for _, b := range boxes {
		if !b.IsEmpty() {
			s.boxes = append(s.boxes, b)
		}
	}
	return s
}

// Or возвращает объединение форм
func Or(shapes ...Shape) Shape {
	var out Shape
	for _, s := range shapes {
		out.boxes = append(out.boxes, s.boxes...)
	}
	return out
}

// Boxes возвращает копию списка боксов
func (s Shape) Boxes() []AABB {
	out := make([]AABB, len(s.boxes))
	copy(out, s.boxes)
	return out
}

// IsEmpty сообщает, что форма не содержит ни одного бокса
func (s Shape) IsEmpty() bool {
	return len(s.boxes) == 0
}

// Bounds возвращает описывающий бокс формы
func (s Shape) Bounds() (AABB, bool) {
	if len(s.boxes) == 0 {
		return AABB{}, false
	}
	out := s.boxes[0]
	for _, b := range s.boxes[1:] {
		out = out.Union(b)
	}
	return out, true
}

// Intersects проверяет попарное пересечение объёмов двух форм
func (s Shape) Intersects(other Shape) bool {
	for _, a := range s.boxes {
		for _, b := range other.boxes {
			if a.Intersects(b) {
				return true
			}
		}
	}
	return false
}

// TouchesFace сообщает, что хотя бы один бокс прилегает к грани клетки
func (s Shape) TouchesFace(face vec.Face) bool {
	for _, b := range s.boxes {
		if b.TouchesFace(face) {
			return true
		}
	}
	return false
}

// FaceShape описывает, как клетка выглядит со стороны грани для соседей
type FaceShape uint8

const (
	FaceShapeUndefined FaceShape = iota
	FaceShapeSolid
	FaceShapeBowl
	FaceShapeCenterSmall
	FaceShapeCenter
	FaceShapeCenterBig
	FaceShapeMiddlePole
)

var faceShapeNames = [...]string{"undefined", "solid", "bowl", "center_small", "center", "center_big", "middle_pole"}

func (f FaceShape) String() string {
	if int(f) < len(faceShapeNames) {
		return faceShapeNames[f]
	}
	return "face_shape(" + strconv.Itoa(int(f)) + ")"
}
