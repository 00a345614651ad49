package vec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Vec3Float представляет точку или направление с плавающими координатами
type Vec3Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3Float) Mul(scalar float64) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo вычисляет евклидово расстояние до другой точки
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	return v.Sub(other).Length()
}

// Axis возвращает компоненту по номеру оси (0 – X, 1 – Y, 2 – Z)
func (v Vec3Float) Axis(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// ToVec3 возвращает клетку, в которой лежит точка
func (v Vec3Float) ToVec3() Vec3 {
	return Vec3{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y)), Z: int(math.Floor(v.Z))}
}

// ParseVec3Float разбирает строку вида "x,y,z"
func ParseVec3Float(s string) (Vec3Float, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return Vec3Float{}, fmt.Errorf("ожидалось три координаты, получено %d: %q", len(parts), s)
	}
	var coords [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Vec3Float{}, fmt.Errorf("неверная координата %q: %w", p, err)
		}
		coords[i] = f
	}
	return Vec3Float{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
