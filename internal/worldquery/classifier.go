package worldquery

import (
	"github.com/annel0/roadmap/internal/config"
)

// Classifier применяет списки переопределений к состояниям блоков
type Classifier struct {
	roads   map[string]struct{}
	terrain map[string]struct{}
	ignored map[string]struct{}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// NewClassifier создаёт классификатор по настройкам сканера
func NewClassifier(cfg config.ScannerConfig) *Classifier {
	return &Classifier{
		roads:   toSet(cfg.RoadBlocks),
		terrain: toSet(cfg.TerrainBlocks),
		ignored: toSet(cfg.IgnoredBlocks),
	}
}

// IsSolid: список рельефа делает блок твёрдым, список игнорируемых — проходимым,
// иначе решает сам мир
func (c *Classifier) IsSolid(state BlockState) bool {
	if _, ok := c.terrain[state.MaterialID]; ok {
		return true
	}
	if _, ok := c.ignored[state.MaterialID]; ok {
		return false
	}
	return state.Opaque
}

// IsRoad проверяет, является ли материал дорожным
func (c *Classifier) IsRoad(name string) bool {
	_, ok := c.roads[name]
	return ok
}
