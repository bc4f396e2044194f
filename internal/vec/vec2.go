package vec

import "math"

// ChunkBitShift сдвиг для перевода мировых координат в координаты чанка
const ChunkBitShift = 4

// ChunkSize размер чанка по каждой горизонтальной оси
const ChunkSize = 1 << ChunkBitShift

// Vec2 представляет координаты чанка на плоскости XZ.
// Поле Y хранит мировую Z-координату.
type Vec2 struct {
	X, Y int
}

// ToBlockCoords возвращает мировые координаты угла чанка (y = 0)
func (v Vec2) ToBlockCoords() Vec3 {
	return Vec3{X: v.X << ChunkBitShift, Y: 0, Z: v.Y << ChunkBitShift}
}

// ChebyshevDistance возвращает расстояние Чебышёва между чанками
func (v Vec2) ChebyshevDistance(other Vec2) int {
	dx := v.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := v.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
