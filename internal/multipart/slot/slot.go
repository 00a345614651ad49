// Package slot описывает места крепления частей внутри одной клетки
// и реестр, который сопоставляет им компактные числовые идентификаторы.
package slot

import "github.com/annel0/mmo-multipart/internal/vec"

// Access определяет, как часть в слоте участвует в запросах к грани клетки
type Access uint8

const (
	AccessNone     Access = iota // Слот не виден со стороны грани
	AccessMerge                  // Значение части объединяется с остальными
	AccessOverride               // Значение части перекрывает остальные
)

type Kind uint8

const (
	KindFace Kind = iota
	KindEdge
	KindCenter
	KindCustom
)

// Slot идентифицирует место крепления и не меняется. Сравнивается по указателю.
type Slot struct {
	name   string
	kind   Kind
	faces  []vec.Face
	access [6]Access
}

// Name возвращает уникальное имя слота
func (s *Slot) Name() string { return s.name }

// Kind возвращает категорию слота
func (s *Slot) Kind() Kind { return s.kind }

// String реализует fmt.Stringer
func (s *Slot) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.name
}

// Faces возвращает грани, к которым прикреплён слот
func (s *Slot) Faces() []vec.Face {
	out := make([]vec.Face, len(s.faces))
	copy(out, s.faces)
	return out
}

// Access возвращает режим доступа слота со стороны грани
func (s *Slot) Access(face vec.Face) Access {
	if !face.Valid() {
		return AccessNone
	}
	return s.access[face]
}

// New создаёт пользовательский слот. Грани, отсутствующие в access, получают AccessNone.
func New(name string, access map[vec.Face]Access) *Slot {
	s := &Slot{name: name, kind: KindCustom}
	for face, a := range access {
		if face.Valid() {
			s.access[face] = a
		}
	}
	return s
}

func newFaceSlot(face vec.Face) *Slot {
	s := &Slot{name: face.String(), kind: KindFace, faces: []vec.Face{face}}
	for _, f := range vec.Faces {
		switch {
		case f == face:
			s.access[f] = AccessOverride
		case f == face.Opposite():
			s.access[f] = AccessNone
		default:
			s.access[f] = AccessMerge
		}
	}
	return s
}

func newEdgeSlot(a, b vec.Face) *Slot {
	s := &Slot{name: "edge_" + a.String() + "_" + b.String(), kind: KindEdge, faces: []vec.Face{a, b}}
	s.access[a] = AccessMerge
	s.access[b] = AccessMerge
	return s
}

func newCenterSlot() *Slot {
	s := &Slot{name: "center", kind: KindCenter}
	for _, f := range vec.Faces {
		s.access[f] = AccessMerge
	}
	return s
}

// Стандартные слоты
var (
	Down   = newFaceSlot(vec.FaceDown)
	Up     = newFaceSlot(vec.FaceUp)
	North  = newFaceSlot(vec.FaceNorth)
	South  = newFaceSlot(vec.FaceSouth)
	West   = newFaceSlot(vec.FaceWest)
	East   = newFaceSlot(vec.FaceEast)
	Center = newCenterSlot()

	faceSlots = [6]*Slot{Down, Up, North, South, West, East}
	edgeSlots = buildEdges()
)

func buildEdges() []*Slot {
	var edges []*Slot
	for i, a := range vec.Faces {
		for _, b := range vec.Faces[i+1:] {
			if a.Axis() == b.Axis() {
				continue
			}
			edges = append(edges, newEdgeSlot(a, b))
		}
	}
	return edges
}

// FaceSlot возвращает слот грани
func FaceSlot(face vec.Face) *Slot {
	if !face.Valid() {
		return nil
	}
	return faceSlots[face]
}

// EdgeSlot возвращает слот ребра между двумя гранями разных осей
func EdgeSlot(a, b vec.Face) (*Slot, bool) {
	if a > b {
		a, b = b, a
	}
	for _, e := range edgeSlots {
		if e.faces[0] == a && e.faces[1] == b {
			return e, true
		}
	}
	return nil, false
}

// Edges возвращает все двенадцать слотов рёбер
func Edges() []*Slot {
	out := make([]*Slot, len(edgeSlots))
	copy(out, edgeSlots)
	return out
}
