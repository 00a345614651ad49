package vec

import "strings"

type Face uint8

const (
	FaceDown Face = iota
	FaceUp
	FaceNorth
	FaceSouth
	FaceWest
	FaceEast
)

// Faces перечисляет все грани в порядке их значений
var Faces = [6]Face{FaceDown, FaceUp, FaceNorth, FaceSouth, FaceWest, FaceEast}

var faceNames = [6]string{"down", "up", "north", "south", "west", "east"}

// String возвращает имя грани
func (f Face) String() string {
	if int(f) < len(faceNames) {
		return faceNames[f]
	}
	return "unknown"
}

// Valid проверяет, что значение является одной из шести граней
func (f Face) Valid() bool {
	return f <= FaceEast
}

// Opposite возвращает противоположную грань
func (f Face) Opposite() Face {
	return f ^ 1
}

// Axis возвращает ось грани: 0 – X, 1 – Y, 2 – Z
func (f Face) Axis() int {
	switch f {
	case FaceWest, FaceEast:
		return 0
	case FaceDown, FaceUp:
		return 1
	default:
		return 2
	}
}

// Positive сообщает, смотрит ли грань в положительную сторону оси
func (f Face) Positive() bool {
	return f == FaceUp || f == FaceSouth || f == FaceEast
}

// Normal возвращает единичный вектор нормали грани
func (f Face) Normal() Vec3 {
	switch f {
	case FaceDown:
		return Vec3{Y: -1}
	case FaceUp:
		return Vec3{Y: 1}
	case FaceNorth:
		return Vec3{Z: -1}
	case FaceSouth:
		return Vec3{Z: 1}
	case FaceWest:
		return Vec3{X: -1}
	case FaceEast:
		return Vec3{X: 1}
	}
	return Vec3{}
}

// ParseFace разбирает имя грани без учёта регистра
func ParseFace(s string) (Face, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range faceNames {
		if name == s {
			return Face(i), true
		}
	}
	return 0, false
}
