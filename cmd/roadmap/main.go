package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/roadmap/internal/api"
	"github.com/annel0/roadmap/internal/app"
	"github.com/annel0/roadmap/internal/cache"
	"github.com/annel0/roadmap/internal/config"
	"github.com/annel0/roadmap/internal/eventbus"
	"github.com/annel0/roadmap/internal/logging"
	"github.com/annel0/roadmap/internal/metrics"
	"github.com/annel0/roadmap/internal/observability"
	"github.com/annel0/roadmap/internal/storage"
	"github.com/annel0/roadmap/internal/vec"
	"github.com/annel0/roadmap/internal/world"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию ROADMAP_CONFIG)")
	scanOnly := flag.Bool("scan", false, "выполнить один демонстрационный скан и выйти")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.SetLogDir(cfg.Logging.Dir)
	if err := logging.InitDefaultLogger("roadmap"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().Close()

	level := logging.INFO
	if cfg.Logging.Level != "" {
		if level, err = logging.ParseLevel(cfg.Logging.Level); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}
	logging.SetDefaultLevel(level)
	logging.GetLoggerManager().SetLevel(level)

	logging.Info("🛣️ Запуск построителя дорожной карты...")
	logging.Debug("Конфигурация: хранилище=%s, кеш=%s, данные=%s",
		cfg.Storage.Backend, cfg.Cache.Backend, cfg.Roadmap.DataPath)

	ctx := context.Background()

	// === ТРАССИРОВКА ===
	if cfg.Server.TracingEnabled {
		shutdown, err := observability.InitTelemetry(ctx, "roadmap")
		if err != nil {
			logging.Error("❌ Ошибка инициализации трассировки: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("Ошибка остановки трассировки: %v", err)
				}
			}()
		}
	}

	// === ИНИЦИАЛИЗАЦИЯ КОМПОНЕНТОВ ===
	backend, err := storage.Open(cfg.Storage, cfg.Roadmap.DataPath)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия хранилища: %v", err)
	}

	blockCache, err := cache.Open(cfg.Cache)
	if err != nil {
		// без кеша сканер работает напрямую с миром
		logging.Warn("⚠️ Кеш %s недоступен, работаем без него: %v", cfg.Cache.Backend, err)
		blockCache = nil
	} else {
		defer blockCache.Close()
	}

	generator := world.NewWorldGenerator(cfg.World.Seed)
	logging.Info("🌍 Демонстрационный мир, seed=%d", cfg.World.Seed)

	var scanMetrics *metrics.ScanMetrics
	if cfg.Server.IsMetricsEnabled() {
		scanMetrics = metrics.NewScanMetrics(nil)
	}

	events, err := eventbus.Open(cfg.Events)
	if err != nil {
		logging.Warn("⚠️ Шина событий %s недоступна, уведомления отключены: %v", cfg.Events.Backend, err)
		events = nil
	}
	if events != nil {
		defer events.Close()
		if _, err := eventbus.StartLoggingListener(ctx, events); err != nil {
			logging.Warn("Ошибка подписки на события: %v", err)
		}
		if cfg.Server.IsMetricsEnabled() {
			if err := eventbus.RegisterMetrics(nil, events); err != nil {
				logging.Warn("Метрики шины событий не зарегистрированы: %v", err)
			}
		}
	}

	service, err := app.NewService(app.Options{
		Config:  cfg,
		Backend: backend,
		World:   generator,
		Cache:   blockCache,
		Metrics: scanMetrics,
		Events:  events,
	})
	if err != nil {
		log.Fatalf("❌ Ошибка создания сервиса: %v", err)
	}
	defer service.Close()

	if err := service.Load(ctx); err != nil {
		log.Fatalf("❌ %v", err)
	}

	if *scanOnly {
		if err := demoScan(ctx, service, generator); err != nil {
			logging.Error("❌ %v", err)
			os.Exit(1)
		}
		return
	}

	// === REST API ===
	gin.SetMode(gin.ReleaseMode)
	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	server := api.NewRestServer(api.Config{Port: restPort, Service: service})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logging.Info("✅ Сервис запущен")
	logging.Info("   🌐 REST API: http://localhost%s/api", restPort)
	logging.Info("   📊 Метрики: http://localhost%s/metrics", restPort)
	logging.Info("💡 curl -X POST http://localhost%s/api/scan -d '{\"x\":0.5,\"y\":70,\"z\":0.5}'", restPort)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
	case err := <-errCh:
		if err != nil {
			logging.Error("❌ REST API остановлен с ошибкой: %v", err)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}

	logging.Info("👋 Сервис остановлен")
}

// demoScan находит дорогу у начала координат и сканирует от неё
func demoScan(ctx context.Context, service *app.Service, generator *world.WorldGenerator) error {
	road, ok := generator.FindRoad(vec.Vec2{}, 128)
	if !ok {
		return fmt.Errorf("дорога рядом с началом координат не найдена")
	}
	feet := vec.Vec3Float{X: float64(road.X) + 0.5, Y: float64(road.Y + 1), Z: float64(road.Z) + 0.5}

	result, err := service.Scan(ctx, feet)
	if err != nil {
		return fmt.Errorf("скан от %v: %w", road, err)
	}
	stats := service.Stats()
	logging.Info("🗺️ Скан %s: записано %d, обрывов %d, всего чанков %d, записей %d",
		result.RunID, result.BlocksRecorded, result.CutoffMarkers, stats.Chunks, stats.Blocks)
	return nil
}
