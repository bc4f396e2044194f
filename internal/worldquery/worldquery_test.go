package worldquery

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/annel0/roadmap/internal/cache"
	"github.com/annel0/roadmap/internal/config"
	"github.com/annel0/roadmap/internal/logging"
	"github.com/annel0/roadmap/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.GetLoggerManager().DisableFiles()
	os.Exit(m.Run())
}

func TestClassifier(t *testing.T) {
	cfg := config.DefaultScanner()
	cfg.TerrainBlocks = []string{"minecraft:glass"}
	c := NewClassifier(cfg)

	assert.True(t, c.IsSolid(Solid("minecraft:stone")))
	assert.False(t, c.IsSolid(Air))
	assert.True(t, c.IsSolid(BlockState{MaterialID: "minecraft:glass"}), "список рельефа делает блок твёрдым")
	assert.False(t, c.IsSolid(Solid("minecraft:snow")), "игнорируемый блок проходим")

	assert.True(t, c.IsRoad("minecraft:gravel"))
	assert.True(t, c.IsRoad("minecraft:dirt_path"))
	assert.False(t, c.IsRoad("minecraft:stone"))
}

func TestMapWorld(t *testing.T) {
	ctx := context.Background()
	w := NewMapWorld()
	pos := vec.Vec3{X: 1, Y: 2, Z: 3}

	state, err := w.BlockAt(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, Air, state)

	w.SetSolid(pos, "minecraft:gravel")
	state, _ = w.BlockAt(ctx, pos)
	assert.Equal(t, Solid("minecraft:gravel"), state)

	w.Remove(pos)
	state, _ = w.BlockAt(ctx, pos)
	assert.Equal(t, Air, state)
	assert.Equal(t, int64(3), w.Queries())
}

func TestCachedWorld_ReadThrough(t *testing.T) {
	ctx := context.Background()
	w := NewMapWorld()
	pos := vec.Vec3{X: 0, Y: 64, Z: 0}
	w.SetSolid(pos, "minecraft:gravel")

	cw := NewCachedWorld(w, cache.NewMemoryCache(), time.Minute)

	state, err := cw.BlockAt(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, Solid("minecraft:gravel"), state)

	// второе обращение обслуживается кешем, даже если мир изменился
	w.Remove(pos)
	state, err = cw.BlockAt(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, Solid("minecraft:gravel"), state)
	assert.Equal(t, int64(1), w.Queries())

	require.NoError(t, cw.ClearCache(ctx))
	state, err = cw.BlockAt(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, Air, state)
	assert.Equal(t, int64(2), w.Queries())
}

func TestCachedWorld_CorruptEntryFallsBackToWorld(t *testing.T) {
	ctx := context.Background()
	w := NewMapWorld()
	pos := vec.Vec3{X: 5, Y: 5, Z: 5}
	w.SetSolid(pos, "minecraft:stone")

	c := cache.NewMemoryCache()
	require.NoError(t, c.Set(ctx, blockKey(pos), []byte("garbage"), 0))

	cw := NewCachedWorld(w, c, 0)
	state, err := cw.BlockAt(ctx, pos)
	require.NoError(t, err)
	assert.Equal(t, Solid("minecraft:stone"), state)
}

type failingWorld struct{}

var errWorld = errors.New("мир недоступен")

func (failingWorld) BlockAt(context.Context, vec.Vec3) (BlockState, error) {
	return BlockState{}, errWorld
}

func TestCachedWorld_PropagatesWorldError(t *testing.T) {
	cw := NewCachedWorld(failingWorld{}, cache.NewMemoryCache(), 0)
	_, err := cw.BlockAt(context.Background(), vec.Vec3{})
	assert.ErrorIs(t, err, errWorld)
}

func TestStateEncoding(t *testing.T) {
	for _, s := range []BlockState{Air, Solid("mod:thing"), {MaterialID: "minecraft:snow", Opaque: true}} {
		decoded, err := decodeState(encodeState(s))
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
	}
}
