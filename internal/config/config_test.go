package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("ROADMAP_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultScanRadius, cfg.Scanner.ScanRadius)
	assert.Equal(t, DefaultScanHeight, cfg.Scanner.ScanHeight)
	assert.Equal(t, DefaultMaxIterations, cfg.Scanner.MaxIterations)
	assert.Equal(t, []string{"minecraft:gravel", "minecraft:dirt_path"}, cfg.Scanner.RoadBlocks)
	assert.Equal(t, []string{"minecraft:snow"}, cfg.Scanner.IgnoredBlocks)
	assert.True(t, cfg.Scanner.ShouldRecordVoid())
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, DefaultUndoHistoryLimit, cfg.Roadmap.UndoHistoryLimit)
	assert.Equal(t, EventsMemory, cfg.Events.Backend)
	assert.Equal(t, 256, cfg.Events.Buffer)
	assert.True(t, cfg.Server.IsMetricsEnabled())
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roadmap.yaml")
	data := `
scanner:
  scan_radius: 32
  scan_height: 8
  road_blocks: [minecraft:stone_bricks]
  record_void: false
roadmap:
  undo_history_limit: 3
storage:
  backend: badger
  compress: true
events:
  backend: nats
  stream: ROADS
server:
  metrics_enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 32.0, cfg.Scanner.ScanRadius)
	assert.Equal(t, 8, cfg.Scanner.ScanHeight)
	assert.Equal(t, []string{"minecraft:stone_bricks"}, cfg.Scanner.RoadBlocks)
	assert.False(t, cfg.Scanner.ShouldRecordVoid())
	assert.Equal(t, 3, cfg.Roadmap.UndoHistoryLimit)
	assert.Equal(t, StorageBadger, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Compress)
	assert.Equal(t, EventsNats, cfg.Events.Backend)
	assert.Equal(t, "ROADS", cfg.Events.Stream)
	assert.False(t, cfg.Server.IsMetricsEnabled())
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Events.NatsURL)
	// незаданное остаётся по умолчанию
	assert.Equal(t, DefaultMaxIterations, cfg.Scanner.MaxIterations)
}

func TestLoad_InvalidBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: floppy\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("events:\n  backend: kafka\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestGetRESTPort_EnvFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("ROADMAP_REST_PORT", "9100")
	assert.Equal(t, 9100, s.GetRESTPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Scanner.ScanRadius = 12

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12.0, loaded.Scanner.ScanRadius)
}
