// Package world содержит детерминированный демонстрационный мир с дорогами.
package world

import (
	"context"
	"math"

	"github.com/annel0/roadmap/internal/util"
	"github.com/annel0/roadmap/internal/vec"
	"github.com/annel0/roadmap/internal/worldquery"
)

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
)

// Константы высот для генерации
const (
	BedrockLevel = 0
	SeaLevel     = 62
	BaseHeight   = 56
	Amplitude    = 28
	SnowLine     = 78
	// Расстояние между соседними дорогами сетки
	RoadSpacing = 48
	// Ширина дороги; при ширине 2 извилистая дорога остаётся связной по сторонам света
	RoadWidth = 2
)

// Материалы демонстрационного мира
const (
	Gravel     = "minecraft:gravel"
	DirtPath   = "minecraft:dirt_path"
	GrassBlock = "minecraft:grass_block"
	Sand       = "minecraft:sand"
	Stone      = "minecraft:stone"
	Dirt       = "minecraft:dirt"
	Snow       = "minecraft:snow"
	Water      = "minecraft:water"
	Bedrock    = "minecraft:bedrock"
)

// WorldGenerator вычисляет блоки мира по шуму Перлина, ничего не храня.
// Реализует worldquery.World.
type WorldGenerator struct {
	Seed        int64   // Сид для генерации шума
	NoiseScale  float64 // Масштаб основного шума (высота)
	BiomeScale  float64 // Масштаб шума биомов
	WindScale   float64 // Масштаб извилистости дорог
	WindAmount  float64 // Максимальное смещение дороги от линии сетки
	heightNoise *util.Noise
	biomeNoise  *util.Noise
	roadNoise   *util.Noise
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Seed:        seed,
		NoiseScale:  0.02,
		BiomeScale:  0.01,
		WindScale:   0.015,
		WindAmount:  10,
		heightNoise: util.NewNoise(seed),
		biomeNoise:  util.NewNoise(seed + 42),
		roadNoise:   util.NewNoise(seed + 7),
	}
}

// SurfaceHeight возвращает высоту поверхности колонны
func (wg *WorldGenerator) SurfaceHeight(x, z int) int {
	n := wg.heightNoise.Noise2D(float64(x)*wg.NoiseScale, float64(z)*wg.NoiseScale)
	return BaseHeight + int(math.Round(n*Amplitude))
}

// Biome определяет биом колонны
func (wg *WorldGenerator) Biome(x, z int) BiomeType {
	h := wg.SurfaceHeight(x, z)
	if h < SeaLevel {
		return BiomeWater
	}
	if h >= SnowLine {
		return BiomeMountains
	}
	v := wg.biomeNoise.Noise2D(float64(x)*wg.BiomeScale, float64(z)*wg.BiomeScale)
	switch {
	case v < 0.35:
		return BiomeDesert
	case v > 0.65:
		return BiomeForest
	default:
		return BiomePlains
	}
}

// windOffset смещение извилистой дороги вдоль координаты along
func (wg *WorldGenerator) windOffset(along int, lane int) int {
	v := wg.roadNoise.Noise1D(float64(along)*wg.WindScale + float64(lane)*17.3)
	return int(math.Round((v - 0.5) * 2 * wg.WindAmount))
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// onRoadLine проверяет попадание в полосу дороги вдоль одной оси
func (wg *WorldGenerator) onRoadLine(across, along int) bool {
	lane := int(math.Floor(float64(across+RoadSpacing/2) / RoadSpacing))
	shifted := across - wg.windOffset(along, lane)
	return floorMod(shifted, RoadSpacing) < RoadWidth
}

// IsRoad проверяет, проходит ли дорога через колонну
func (wg *WorldGenerator) IsRoad(x, z int) bool {
	if wg.SurfaceHeight(x, z) < SeaLevel {
		return false
	}
	return wg.onRoadLine(x, z) || wg.onRoadLine(z, x)
}

// SurfaceMaterial возвращает материал верхнего блока колонны
func (wg *WorldGenerator) SurfaceMaterial(x, z int) string {
	biome := wg.Biome(x, z)
	if wg.IsRoad(x, z) {
		if biome == BiomeForest {
			return DirtPath
		}
		return Gravel
	}
	switch biome {
	case BiomeDesert:
		return Sand
	case BiomeMountains:
		return Stone
	case BiomeWater:
		return Sand
	default:
		return GrassBlock
	}
}

// BlockAt вычисляет состояние блока
func (wg *WorldGenerator) BlockAt(ctx context.Context, pos vec.Vec3) (worldquery.BlockState, error) {
	if pos.Y <= BedrockLevel {
		return worldquery.Solid(Bedrock), nil
	}

	h := wg.SurfaceHeight(pos.X, pos.Z)
	switch {
	case pos.Y == h:
		return worldquery.Solid(wg.SurfaceMaterial(pos.X, pos.Z)), nil
	case pos.Y < h-3:
		return worldquery.Solid(Stone), nil
	case pos.Y < h:
		return worldquery.Solid(Dirt), nil
	case pos.Y <= SeaLevel && h < SeaLevel:
		return worldquery.BlockState{MaterialID: Water}, nil
	case pos.Y == h+1 && h >= SnowLine && !wg.IsRoad(pos.X, pos.Z):
		// снежный покров не твёрдый, но мир считает его непрозрачным
		return worldquery.BlockState{MaterialID: Snow, Opaque: true}, nil
	default:
		return worldquery.Air, nil
	}
}

// FindRoad ищет ближайшую к center колонну с дорогой по расширяющимся квадратам.
// Возвращает позицию поверхности дороги.
func (wg *WorldGenerator) FindRoad(center vec.Vec2, maxRadius int) (vec.Vec3, bool) {
	for r := 0; r <= maxRadius; r++ {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if max(abs(dx), abs(dz)) != r {
					continue
				}
				x, z := center.X+dx, center.Y+dz
				if wg.IsRoad(x, z) {
					return vec.Vec3{X: x, Y: wg.SurfaceHeight(x, z), Z: z}, true
				}
			}
		}
	}
	return vec.Vec3{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
