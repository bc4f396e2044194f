package vec

import (
	"fmt"
	"math"
)

// Vec3 представляет трехмерный вектор с целочисленными координатами
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ToChunkCoords преобразует мировые координаты в координаты чанка.
// Высота не участвует в разбиении.
func (v Vec3) ToChunkCoords() Vec2 {
	return Vec2{X: v.X >> ChunkBitShift, Y: v.Z >> ChunkBitShift}
}

// ToFloat преобразует в вектор с плавающими координатами
func (v Vec3) ToFloat() Vec3Float {
	return Vec3Float{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Up возвращает позицию на dy выше
func (v Vec3) Up(dy int) Vec3 {
	return Vec3{X: v.X, Y: v.Y + dy, Z: v.Z}
}

// WithY возвращает копию с заменённой высотой
func (v Vec3) WithY(y int) Vec3 {
	return Vec3{X: v.X, Y: y, Z: v.Z}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// IsNear проверяет, что позиции в одной колонне и высоты отличаются не более чем на rangeY
func (v Vec3) IsNear(other Vec3, rangeY int) bool {
	if v.X != other.X || v.Z != other.Z {
		return false
	}
	return v.Y >= other.Y-rangeY && v.Y <= other.Y+rangeY
}

// AdjacentPositions возвращает соседей по сторонам света (без диагоналей):
// север, восток, юг, запад.
func (v Vec3) AdjacentPositions() []Vec3 {
	return []Vec3{
		{X: v.X, Y: v.Y, Z: v.Z - 1},
		{X: v.X + 1, Y: v.Y, Z: v.Z},
		{X: v.X, Y: v.Y, Z: v.Z + 1},
		{X: v.X - 1, Y: v.Y, Z: v.Z},
	}
}

// DistanceTo возвращает евклидово расстояние до другой позиции
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.DistanceToFloat(other.ToFloat())
}

// DistanceToFloat возвращает евклидово расстояние до точки с плавающими координатами
func (v Vec3) DistanceToFloat(other Vec3Float) float64 {
	dx := float64(v.X) - other.X
	dy := float64(v.Y) - other.Y
	dz := float64(v.Z) - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

// ToBlock округляет координаты вниз до позиции блока
func (v Vec3Float) ToBlock() Vec3 {
	return Vec3{
		X: int(math.Floor(v.X)),
		Y: int(math.Floor(v.Y)),
		Z: int(math.Floor(v.Z)),
	}
}
