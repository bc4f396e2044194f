package roadmap

import (
	"math"

	"github.com/annel0/roadmap/internal/vec"
)

// PosGroup набор близких позиций с округлённым центром
type PosGroup struct {
	positions []vec.Vec3
	center    vec.Vec3
}

// NewPosGroup создаёт группу из одной позиции
func NewPosGroup(pos vec.Vec3) *PosGroup {
	g := &PosGroup{}
	g.add(pos)
	return g
}

func (g *PosGroup) add(pos vec.Vec3) {
	g.positions = append(g.positions, pos)
	g.recalc()
}

func (g *PosGroup) remove(pos vec.Vec3) bool {
	for i, p := range g.positions {
		if p == pos {
			g.positions = append(g.positions[:i], g.positions[i+1:]...)
			g.recalc()
			return true
		}
	}
	return false
}

func (g *PosGroup) recalc() {
	if len(g.positions) == 0 {
		g.center = vec.Vec3{}
		return
	}
	var sx, sy, sz float64
	for _, p := range g.positions {
		sx += float64(p.X)
		sy += float64(p.Y)
		sz += float64(p.Z)
	}
	n := float64(len(g.positions))
	g.center = vec.Vec3{
		X: int(math.Round(sx / n)),
		Y: int(math.Round(sy / n)),
		Z: int(math.Round(sz / n)),
	}
}

// Center возвращает центр группы
func (g *PosGroup) Center() vec.Vec3 {
	return g.center
}

// Positions возвращает копию позиций группы
func (g *PosGroup) Positions() []vec.Vec3 {
	result := make([]vec.Vec3, len(g.positions))
	copy(result, g.positions)
	return result
}

// Size возвращает число позиций
func (g *PosGroup) Size() int {
	return len(g.positions)
}

// PosGroupCollection объединяет позиции в группы по расстоянию до центра
type PosGroupCollection struct {
	mergeRange float64
	groups     []*PosGroup
}

// NewPosGroupCollection создаёт коллекцию с радиусом объединения mergeRange
func NewPosGroupCollection(mergeRange float64) *PosGroupCollection {
	return &PosGroupCollection{mergeRange: mergeRange}
}

// AddPos добавляет позицию в первую группу, центр которой в пределах радиуса
func (c *PosGroupCollection) AddPos(pos vec.Vec3) {
	for _, g := range c.groups {
		if g.Center().DistanceTo(pos) <= c.mergeRange {
			g.add(pos)
			return
		}
	}
	c.groups = append(c.groups, NewPosGroup(pos))
}

// RemovePos удаляет позицию из группы, которой она принадлежит
func (c *PosGroupCollection) RemovePos(pos vec.Vec3) bool {
	for _, g := range c.groups {
		if g.remove(pos) {
			return true
		}
	}
	return false
}

// RemoveEmptyGroups удаляет пустые группы
func (c *PosGroupCollection) RemoveEmptyGroups() {
	kept := c.groups[:0]
	for _, g := range c.groups {
		if g.Size() > 0 {
			kept = append(kept, g)
		}
	}
	c.groups = kept
}

// Groups возвращает непустые группы
func (c *PosGroupCollection) Groups() []*PosGroup {
	result := make([]*PosGroup, 0, len(c.groups))
	for _, g := range c.groups {
		if g.Size() > 0 {
			result = append(result, g)
		}
	}
	return result
}

// Centers возвращает центры непустых групп
func (c *PosGroupCollection) Centers() []vec.Vec3 {
	groups := c.Groups()
	result := make([]vec.Vec3, len(groups))
	for i, g := range groups {
		result[i] = g.Center()
	}
	return result
}

// PosCount возвращает общее число позиций
func (c *PosGroupCollection) PosCount() int {
	total := 0
	for _, g := range c.groups {
		total += g.Size()
	}
	return total
}
