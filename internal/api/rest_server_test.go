package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/annel0/roadmap/internal/app"
	"github.com/annel0/roadmap/internal/config"
	"github.com/annel0/roadmap/internal/logging"
	"github.com/annel0/roadmap/internal/storage"
	"github.com/annel0/roadmap/internal/vec"
	"github.com/annel0/roadmap/internal/worldquery"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.GetLoggerManager().DisableFiles()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*RestServer, *worldquery.MapWorld) {
	t.Helper()
	cfg := config.Default()
	noVoid := false
	cfg.Scanner.RecordVoid = &noVoid
	cfg.Scanner.ScanRadius = 8

	world := worldquery.NewMapWorld()
	for x := 0; x <= 20; x++ {
		world.SetSolid(vec.Vec3{X: x, Y: 64, Z: 0}, "minecraft:gravel")
	}

	svc, err := app.NewService(app.Options{
		Config:  cfg,
		Backend: storage.NewFileStorage(t.TempDir()),
		World:   world,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	return NewRestServer(Config{Service: svc, Registry: prometheus.NewRegistry()}), world
}

func do(t *testing.T, rs *RestServer, method, path string, body interface{}) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, req)

	var resp response
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w.Code, resp
}

func TestRestServer_ScanUndoRedo(t *testing.T) {
	rs, _ := newTestServer(t)

	code, resp := do(t, rs, http.MethodPost, "/api/scan", ScanRequest{X: 0.5, Y: 65, Z: 0.5})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	var result struct {
		Started        bool `json:"started"`
		BlocksRecorded int  `json:"blocks_recorded"`
		CutoffMarkers  int  `json:"cutoff_markers"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.True(t, result.Started)
	assert.Equal(t, 9, result.BlocksRecorded)
	assert.Equal(t, 1, result.CutoffMarkers)

	var changed struct {
		Changed bool `json:"changed"`
	}
	code, resp = do(t, rs, http.MethodPost, "/api/undo", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &changed))
	assert.True(t, changed.Changed)

	code, resp = do(t, rs, http.MethodPost, "/api/undo", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &changed))
	assert.False(t, changed.Changed)

	code, resp = do(t, rs, http.MethodPost, "/api/redo", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &changed))
	assert.True(t, changed.Changed)
}

func TestRestServer_ScanNotStarted(t *testing.T) {
	rs, _ := newTestServer(t)

	code, resp := do(t, rs, http.MethodPost, "/api/scan", ScanRequest{X: 100, Y: 65, Z: 100})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.False(t, resp.Success)

	code, _ = do(t, rs, http.MethodPost, "/api/scan", "не объект")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRestServer_FrontierAndChunks(t *testing.T) {
	rs, _ := newTestServer(t)
	code, _ := do(t, rs, http.MethodPost, "/api/scan", ScanRequest{X: 0.5, Y: 65, Z: 0.5})
	require.Equal(t, http.StatusOK, code)

	code, resp := do(t, rs, http.MethodGet, "/api/frontier?x=0&y=64&z=0", nil)
	require.Equal(t, http.StatusOK, code)
	var frontier struct {
		Groups []app.FrontierGroup `json:"groups"`
		Total  int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &frontier))
	require.Equal(t, 1, frontier.Total)
	assert.Equal(t, vec.Vec3{X: 9, Y: 64, Z: 0}, frontier.Groups[0].Center)

	code, _ = do(t, rs, http.MethodGet, "/api/frontier?x=a", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = do(t, rs, http.MethodGet, "/api/chunks/0/0", nil)
	require.Equal(t, http.StatusOK, code)
	var chunk struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &chunk))
	assert.Equal(t, 9, chunk.Total)

	code, _ = do(t, rs, http.MethodGet, "/api/chunks/5/5", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, rs, http.MethodGet, "/api/chunks/x/0", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRestServer_Markers(t *testing.T) {
	rs, _ := newTestServer(t)
	marker := map[string]interface{}{"x": 3, "y": 64, "z": 3, "type": "scan_fence"}

	code, _ := do(t, rs, http.MethodPost, "/api/markers", marker)
	assert.Equal(t, http.StatusCreated, code)
	code, _ = do(t, rs, http.MethodPost, "/api/markers", marker)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, rs, http.MethodPost, "/api/markers", map[string]interface{}{"x": 1, "type": "teleport"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, rs, http.MethodPost, "/api/markers", map[string]interface{}{"x": 1})
	assert.Equal(t, http.StatusBadRequest, code, "тип обязателен")

	code, _ = do(t, rs, http.MethodPost, "/api/goal", GoalRequest{X: 10, Y: 64, Z: 10})
	assert.Equal(t, http.StatusOK, code)

	code, resp := do(t, rs, http.MethodGet, "/api/markers?type=pathfinder_goal", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 1, list.Total)

	code, _ = do(t, rs, http.MethodGet, "/api/markers?type=teleport", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, rs, http.MethodDelete, "/api/markers", marker)
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, rs, http.MethodDelete, "/api/markers", marker)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRestServer_ClearAndStats(t *testing.T) {
	rs, _ := newTestServer(t)
	code, _ := do(t, rs, http.MethodPost, "/api/scan", ScanRequest{X: 0.5, Y: 65, Z: 0.5})
	require.Equal(t, http.StatusOK, code)

	code, resp := do(t, rs, http.MethodPost, "/api/clear", ClearRequest{X: 0, Y: 64, Z: 0, Radius: 0})
	require.Equal(t, http.StatusOK, code)
	var cleared struct {
		RemovedChunks int `json:"removed_chunks"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &cleared))
	assert.Equal(t, 1, cleared.RemovedChunks)

	code, _ = do(t, rs, http.MethodPost, "/api/clear", ClearRequest{Radius: -1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, rs, http.MethodPost, "/api/clear", ClearRequest{Radius: 1 << 62})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = do(t, rs, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, code)
	var stats struct {
		Roadmap app.Stats    `json:"roadmap"`
		Server  ProcessStats `json:"server"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, 0, stats.Roadmap.Blocks)
	assert.Equal(t, 0, stats.Roadmap.CutoffMarkers)
	assert.Equal(t, 2, stats.Roadmap.UndoDepth)
	assert.NotEmpty(t, stats.Server.Uptime)
	assert.Greater(t, stats.Server.Goroutines, 0)

	for _, path := range []string{"/api/clear-all", "/api/optimize", "/api/reload"} {
		code, _ = do(t, rs, http.MethodPost, path, nil)
		assert.Equal(t, http.StatusOK, code, path)
	}
}

func TestRestServer_HealthAndMetrics(t *testing.T) {
	rs, _ := newTestServer(t)

	code, _ := do(t, rs, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)

	w := httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "roadmap_api_http_request_duration_seconds")

	w = httptest.NewRecorder()
	rs.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/scan", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
