package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/annel0/roadmap/internal/logging"
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

func newRouter(reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(NewRequestLogger().Handler())
	pm := NewPrometheusMiddleware("test", reg)
	r.Use(pm.Handler())
	pm.RegisterMetricsEndpoint(r)

	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(TraceIDKey))
	})
	r.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	return r
}

func TestRequestLogger_SetsTraceID(t *testing.T) {
	r := newRouter(prometheus.NewRegistry())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Trace-Id"))
}

func TestPrometheusMiddleware_ExposesMetrics(t *testing.T) {
	r := newRouter(prometheus.NewRegistry())

	for _, path := range []string{"/ok", "/fail", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `test_http_request_duration_seconds_count{method="GET",path="/ok",status="200"} 1`)
	assert.Contains(t, body, `test_http_request_errors_total{method="GET",path="/fail",status="500"} 1`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.False(t, strings.Contains(body, `path="/missing"`))
}
