package worldquery

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/annel0/roadmap/internal/vec"
)

// MapWorld разреженный мир в памяти; отсутствующие позиции — воздух
type MapWorld struct {
	mu      sync.RWMutex
	blocks  map[vec.Vec3]BlockState
	queries int64
}

// NewMapWorld создаёт пустой мир
func NewMapWorld() *MapWorld {
	return &MapWorld{blocks: make(map[vec.Vec3]BlockState)}
}

// Set задаёт состояние блока
func (w *MapWorld) Set(pos vec.Vec3, state BlockState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if state.MaterialID == AirMaterial && !state.Opaque {
		delete(w.blocks, pos)
		return
	}
	w.blocks[pos] = state
}

// SetSolid ставит твёрдый блок материала name
func (w *MapWorld) SetSolid(pos vec.Vec3, name string) {
	w.Set(pos, Solid(name))
}

// Remove заменяет блок воздухом
func (w *MapWorld) Remove(pos vec.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.blocks, pos)
}

// BlockAt возвращает состояние блока
func (w *MapWorld) BlockAt(ctx context.Context, pos vec.Vec3) (BlockState, error) {
	atomic.AddInt64(&w.queries, 1)
	w.mu.RLock()
	defer w.mu.RUnlock()
	if state, ok := w.blocks[pos]; ok {
		return state, nil
	}
	return Air, nil
}

// Queries возвращает число обращений к миру
func (w *MapWorld) Queries() int64 {
	return atomic.LoadInt64(&w.queries)
}
