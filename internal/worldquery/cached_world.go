package worldquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/annel0/roadmap/internal/cache"
	"github.com/annel0/roadmap/internal/logging"
	"github.com/annel0/roadmap/internal/vec"
)

// CachedWorld читает мир через кеш, ключ — точная позиция блока
type CachedWorld struct {
	world  World
	cache  cache.Cache
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedWorld оборачивает мир кешем. ttl = 0 — без истечения.
func NewCachedWorld(world World, c cache.Cache, ttl time.Duration) *CachedWorld {
	return &CachedWorld{
		world:  world,
		cache:  c,
		ttl:    ttl,
		logger: logging.GetComponentLogger("world"),
	}
}

func blockKey(pos vec.Vec3) string {
	return fmt.Sprintf("%d:%d:%d", pos.X, pos.Y, pos.Z)
}

func encodeState(state BlockState) []byte {
	flag := "0"
	if state.Opaque {
		flag = "1"
	}
	return []byte(flag + "|" + state.MaterialID)
}

func decodeState(data []byte) (BlockState, error) {
	flag, name, ok := strings.Cut(string(data), "|")
	if !ok || (flag != "0" && flag != "1") || name == "" {
		return BlockState{}, fmt.Errorf("повреждённое значение кеша %q", string(data))
	}
	return BlockState{MaterialID: name, Opaque: flag == "1"}, nil
}

// BlockAt возвращает состояние из кеша или из мира, сохраняя результат в кеш
func (w *CachedWorld) BlockAt(ctx context.Context, pos vec.Vec3) (BlockState, error) {
	key := blockKey(pos)

	data, err := w.cache.Get(ctx, key)
	if err == nil {
		state, decErr := decodeState(data)
		if decErr == nil {
			return state, nil
		}
		w.logger.Warn("Кеш блока %s: %v", key, decErr)
	} else if !cache.IsCacheMiss(err) {
		w.logger.Warn("Ошибка кеша для %s: %v", key, err)
	}

	state, err := w.world.BlockAt(ctx, pos)
	if err != nil {
		return BlockState{}, err
	}
	if err := w.cache.Set(ctx, key, encodeState(state), w.ttl); err != nil {
		w.logger.Warn("Не удалось сохранить %s в кеш: %v", key, err)
	}
	return state, nil
}

// ClearCache сбрасывает кеш состояний
func (w *CachedWorld) ClearCache(ctx context.Context) error {
	if err := w.cache.Clear(ctx); err != nil {
		return fmt.Errorf("очистка кеша мира: %w", err)
	}
	return nil
}

// Cache возвращает используемый кеш
func (w *CachedWorld) Cache() cache.Cache {
	return w.cache
}
