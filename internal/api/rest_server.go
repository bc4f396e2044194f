package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/roadmap/internal/app"
	"github.com/annel0/roadmap/internal/logging"
	"github.com/annel0/roadmap/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API управления картой
type RestServer struct {
	router     *gin.Engine
	service    *app.Service
	port       string
	metrics    *ServerMetrics
	httpServer *http.Server
	logger     *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string               // адрес для запуска сервера, например ":8090"
	Service  *app.Service         // операции над картой
	Registry *prometheus.Registry // nil — дефолтный регистр Prometheus
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8090"
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("roadmap_api"))

	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("roadmap_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:  router,
		service: config.Service,
		port:    config.Port,
		metrics: NewServerMetrics(),
		logger:  logging.GetComponentLogger("server"),
	}
	server.httpServer = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(corsMiddleware())

	api := rs.router.Group("/api")
	{
		api.POST("/scan", rs.handleScan)
		api.POST("/undo", rs.handleUndo)
		api.POST("/redo", rs.handleRedo)
		api.POST("/clear", rs.handleClear)
		api.POST("/clear-all", rs.handleClearAll)
		api.GET("/frontier", rs.handleFrontier)
		api.POST("/reload", rs.handleReload)
		api.POST("/optimize", rs.handleOptimize)

		api.GET("/markers", rs.handleGetMarkers)
		api.POST("/markers", rs.handleAddMarker)
		api.DELETE("/markers", rs.handleRemoveMarker)
		api.POST("/goal", rs.handleSetGoal)

		api.GET("/chunks/:x/:z", rs.handleGetChunk)
		api.GET("/stats", rs.handleStats)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер и блокируется до остановки
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API запущен на %s", rs.port)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь завершения активных запросов
func (rs *RestServer) Shutdown(ctx context.Context) error {
	rs.logger.Info("🛑 Остановка REST API...")
	return rs.httpServer.Shutdown(ctx)
}
