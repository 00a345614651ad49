package vec

import (
	"fmt"
	"strconv"
	"strings"
)

// Vec3 представляет позицию клетки в мире (целочисленные координаты)
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// ToChunkCoords преобразует глобальные координаты в координаты чанка
func (v Vec3) ToChunkCoords() Vec3 {
	return Vec3{X: v.X >> 4, Y: v.Y >> 4, Z: v.Z >> 4} // Деление на 16
}

// LocalInChunk возвращает локальные координаты внутри чанка
func (v Vec3) LocalInChunk() Vec3 {
	return Vec3{X: v.X & 0xF, Y: v.Y & 0xF, Z: v.Z & 0xF} // Модуль 16
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Offset возвращает соседнюю клетку в направлении грани
func (v Vec3) Offset(face Face) Vec3 {
	return v.Add(face.Normal())
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// ToFloat возвращает минимальный угол клетки в мировых координатах
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// String возвращает строку вида "x,y,z"
func (v Vec3) String() string {
	return fmt.Sprintf("%d,%d,%d", v.X, v.Y, v.Z)
}

// Key возвращает ключ позиции для хранилищ
func (v Vec3) Key() string {
	return fmt.Sprintf("%d:%d:%d", v.X, v.Y, v.Z)
}

// ParseVec3 разбирает строку вида "x,y,z"
func ParseVec3(s string) (Vec3, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return Vec3{}, fmt.Errorf("ожидалось три координаты, получено %d: %q", len(parts), s)
	}
	var coords [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Vec3{}, fmt.Errorf("неверная координата %q: %w", p, err)
		}
		coords[i] = n
	}
	return Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
