// Package worldquery описывает доступ сканера к состоянию мира.
package worldquery

import (
	"context"

	"github.com/annel0/roadmap/internal/vec"
)

// BlockState состояние одного блока мира
type BlockState struct {
	MaterialID string
	Opaque     bool // блок непрозрачен (твёрдый) по мнению самого мира
}

// AirMaterial материал пустого блока
const AirMaterial = "minecraft:air"

// Air пустой блок
var Air = BlockState{MaterialID: AirMaterial}

// Solid создаёт твёрдый блок материала name
func Solid(name string) BlockState {
	return BlockState{MaterialID: name, Opaque: true}
}

// World источник состояний блоков
type World interface {
	BlockAt(ctx context.Context, pos vec.Vec3) (BlockState, error)
}
