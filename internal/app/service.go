// Package app объединяет карту, сканер и хранилище в операции для внешних вызывающих.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/roadmap/internal/cache"
	"github.com/annel0/roadmap/internal/config"
	"github.com/annel0/roadmap/internal/eventbus"
	"github.com/annel0/roadmap/internal/logging"
	"github.com/annel0/roadmap/internal/metrics"
	"github.com/annel0/roadmap/internal/observability"
	"github.com/annel0/roadmap/internal/roadmap"
	"github.com/annel0/roadmap/internal/scanner"
	"github.com/annel0/roadmap/internal/storage"
	"github.com/annel0/roadmap/internal/vec"
	"github.com/annel0/roadmap/internal/worldquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Options зависимости сервиса
type Options struct {
	Config  *config.Config
	Backend storage.Backend
	World   worldquery.World
	Cache   cache.Cache          // опционально: кеш состояний блоков
	Metrics *metrics.ScanMetrics // опционально
	Events  eventbus.EventBus    // опционально: уведомления об изменениях карты
}

// FrontierGroup группа маркеров обрыва
type FrontierGroup struct {
	Center    vec.Vec3   `json:"center"`
	Positions []vec.Vec3 `json:"positions"`
	Distance  float64    `json:"distance"`
}

// Stats сводка состояния карты
type Stats struct {
	Chunks        int  `json:"chunks"`
	Blocks        int  `json:"blocks"`
	RoadBlocks    int  `json:"road_blocks"`
	Markers       int  `json:"markers"`
	CutoffMarkers int  `json:"cutoff_markers"`
	UndoDepth     int  `json:"undo_depth"`
	RedoDepth     int  `json:"redo_depth"`
	Dirty         bool `json:"dirty"`
}

// Service выполняет операции над картой; все вызовы сериализуются
type Service struct {
	mu sync.Mutex

	cfg         *config.Config
	roadmap     *roadmap.Roadmap
	scanner     *scanner.Scanner
	backend     storage.Backend
	cachedWorld *worldquery.CachedWorld
	metrics     *metrics.ScanMetrics
	events      eventbus.EventBus
	tracer      trace.Tracer
	logger      *logging.Logger
}

// NewService собирает сервис из зависимостей
func NewService(opts Options) (*Service, error) {
	if opts.Backend == nil {
		return nil, errors.New("app: не задано хранилище")
	}
	if opts.World == nil {
		return nil, errors.New("app: не задан мир")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	rm := roadmap.NewRoadmap(opts.Backend, cfg.Roadmap.UndoHistoryLimit)

	world := opts.World
	var cachedWorld *worldquery.CachedWorld
	if opts.Cache != nil {
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		cachedWorld = worldquery.NewCachedWorld(opts.World, opts.Cache, ttl)
		world = cachedWorld
	}

	sc := scanner.NewScanner(rm, world, cfg.Scanner)
	sc.SetMetrics(opts.Metrics)

	return &Service{
		cfg:         cfg,
		roadmap:     rm,
		scanner:     sc,
		backend:     opts.Backend,
		cachedWorld: cachedWorld,
		metrics:     opts.Metrics,
		events:      opts.Events,
		tracer:      observability.Tracer("roadmap/app"),
		logger:      logging.GetComponentLogger("app"),
	}, nil
}

// Load читает карту из хранилища при запуске
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.roadmap.ReadFiles(ctx); err != nil {
		return fmt.Errorf("загрузка карты: %w", err)
	}
	s.updateSize()
	return nil
}

func (s *Service) updateSize() {
	s.metrics.SetRoadmapSize(s.roadmap.ChunkCount(), s.roadmap.BlockCount(), s.roadmap.MarkerCount())
}

// flush сохраняет изменения и обновляет метрики
func (s *Service) flush(ctx context.Context, force bool) error {
	_, err := s.roadmap.WriteFiles(ctx, force)
	s.metrics.ObserveFlush(force, err)
	s.updateSize()
	if err != nil {
		return fmt.Errorf("сохранение карты: %w", err)
	}
	return nil
}

// publish отправляет событие об изменении; ошибки шины не прерывают операцию
func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventType, payload)
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.Warn("Событие %s не отправлено: %v", eventType, err)
	}
}

// Scan сканирует дорожную сеть от позиции наблюдателя и сохраняет изменения.
// Состояние до скана попадает в историю отмены.
func (s *Service) Scan(ctx context.Context, observer vec.Vec3Float) (scanner.ScanResult, error) {
	return s.ScanWith(ctx, scanner.StaticObserver(observer))
}

// ScanWith то же, что Scan, с подвижным наблюдателем
func (s *Service) ScanWith(ctx context.Context, observer scanner.Observer) (result scanner.ScanResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "roadmap.scan")
	defer func() {
		span.SetAttributes(
			attribute.String("scan.run_id", result.RunID),
			attribute.Bool("scan.started", result.Started),
			attribute.Int("scan.iterations", result.Iterations),
			attribute.Int("scan.blocks_recorded", result.BlocksRecorded),
			attribute.Int("scan.cutoff_markers", result.CutoffMarkers),
			attribute.Bool("scan.limit_reached", result.LimitReached),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	s.roadmap.SaveStateToUndoHistory()
	result, scanErr := s.scanner.Scan(ctx, observer)
	if !result.Started {
		s.roadmap.DiscardLastUndoState()
		return result, scanErr
	}

	// частичные результаты прерванного скана тоже сохраняются
	saveCtx := context.WithoutCancel(ctx)
	if err := s.flush(saveCtx, false); err != nil {
		return result, errors.Join(scanErr, err)
	}
	s.publish(saveCtx, eventbus.EventScanCompleted, eventbus.ScanCompletedPayload{
		RunID:          result.RunID,
		OriginX:        result.Origin.X,
		OriginY:        result.Origin.Y,
		OriginZ:        result.Origin.Z,
		BlocksRecorded: result.BlocksRecorded,
		CutoffMarkers:  result.CutoffMarkers,
		LimitReached:   result.LimitReached,
		Interrupted:    scanErr != nil,
	})
	return result, scanErr
}

// Undo откатывает последнее изменение и переписывает файлы карты
func (s *Service) Undo(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roadmap.RevertStateFromUndoHistory() {
		s.logger.Info("Нечего отменять")
		return false, nil
	}
	s.logger.Info("↩️ Отмена выполнена (осталось %d)", s.roadmap.UndoDepth())
	return true, s.flushRestored(ctx, "undo")
}

// Redo повторяет отменённое изменение и переписывает файлы карты
func (s *Service) Redo(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.roadmap.RestoreStateFromRedoHistory() {
		s.logger.Info("Нечего повторять")
		return false, nil
	}
	s.logger.Info("↪️ Повтор выполнен (осталось %d)", s.roadmap.RedoDepth())
	return true, s.flushRestored(ctx, "redo")
}

func (s *Service) flushRestored(ctx context.Context, direction string) error {
	if err := s.flush(ctx, true); err != nil {
		return err
	}
	s.publish(ctx, eventbus.EventHistoryRestored, eventbus.HistoryRestoredPayload{
		Direction: direction,
		UndoDepth: s.roadmap.UndoDepth(),
		RedoDepth: s.roadmap.RedoDepth(),
	})
	return nil
}

// ClearChunksInRadius удаляет чанки в квадрате radius (в чанках) вокруг center
// вместе с маркерами обрыва в них. Возвращает число удалённых чанков.
func (s *Service) ClearChunksInRadius(ctx context.Context, center vec.Vec3, radius int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roadmap.SaveStateToUndoHistory()

	chunks := s.roadmap.GetChunksInRadius(center.ToChunkCoords(), radius)
	coords := make([]vec.Vec2, 0, len(chunks))
	for _, chunk := range chunks {
		coords = append(coords, chunk.Coords)
	}

	// маркеры ищутся по всему квадрату, а не только по существующим чанкам
	markers := s.roadmap.ClearMarkersInRadius(center.ToChunkCoords(), radius, roadmap.CutoffPoint)

	for _, addr := range coords {
		s.roadmap.RemoveChunk(addr)
	}

	if len(coords) == 0 && markers == 0 {
		s.roadmap.DiscardLastUndoState()
		return 0, nil
	}
	s.logger.Info("🧹 Удалено %d чанков и %d маркеров обрыва вокруг %v", len(coords), markers, center)
	if err := s.flush(ctx, true); err != nil {
		return len(coords), err
	}
	s.publish(ctx, eventbus.EventChunksCleared, eventbus.ChunksClearedPayload{
		CenterX:       center.X,
		CenterZ:       center.Z,
		Radius:        radius,
		RemovedChunks: len(coords),
	})
	return len(coords), nil
}

// ClearAll удаляет все чанки и маркеры; пустая карта не переписывается
func (s *Service) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roadmap.SaveStateToUndoHistory()
	removed := s.roadmap.ChunkCount()
	chunks := s.roadmap.ClearChunks()
	markers := s.roadmap.ClearMarkers()
	if !chunks && !markers {
		s.roadmap.DiscardLastUndoState()
		return nil
	}
	s.logger.Info("🧹 Карта очищена")
	if err := s.flush(ctx, true); err != nil {
		return err
	}
	s.publish(ctx, eventbus.EventChunksCleared, eventbus.ChunksClearedPayload{All: true, RemovedChunks: removed})
	return nil
}

// FindFrontierMarkers группирует маркеры обрыва и сортирует группы по удалению от ref
func (s *Service) FindFrontierMarkers(ref vec.Vec3) []FrontierGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := s.roadmap.FindFrontierGroups(ref, s.cfg.Roadmap.FrontierGroupRadius)
	result := make([]FrontierGroup, 0, len(groups))
	for _, g := range groups {
		result = append(result, FrontierGroup{
			Center:    g.Center(),
			Positions: g.Positions(),
			Distance:  g.Center().DistanceTo(ref),
		})
	}
	return result
}

// Reload перечитывает файлы, сбрасывая память, кеш мира и историю
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.roadmap.ReadFiles(ctx); err != nil {
		return fmt.Errorf("перезагрузка карты: %w", err)
	}
	if s.cachedWorld != nil {
		if err := s.cachedWorld.ClearCache(ctx); err != nil {
			return err
		}
	}
	s.updateSize()
	s.logger.Info("🔄 Карта перезагружена")
	s.publish(ctx, eventbus.EventRoadmapReloaded, eventbus.CountPayload{Count: s.roadmap.BlockCount()})
	return nil
}

// Optimize удаляет записи рельефа без дорожных соседей
func (s *Service) Optimize(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roadmap.SaveStateToUndoHistory()
	removed := s.roadmap.Optimize()
	if removed == 0 {
		s.roadmap.DiscardLastUndoState()
		return 0, nil
	}
	s.logger.Info("Оптимизация удалила %d записей", removed)
	if err := s.flush(ctx, false); err != nil {
		return removed, err
	}
	s.publish(ctx, eventbus.EventOptimized, eventbus.CountPayload{Count: removed})
	return removed, nil
}

// AddMarker добавляет маркер; false если рядом уже есть маркер того же типа
func (s *Service) AddMarker(ctx context.Context, pos vec.Vec3, markerType roadmap.MarkerType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roadmap.SaveStateToUndoHistory()
	if !s.roadmap.AddMarker(pos, markerType) {
		s.roadmap.DiscardLastUndoState()
		return false, nil
	}
	return true, s.flushMarkers(ctx)
}

// RemoveMarker удаляет совпадающие маркеры
func (s *Service) RemoveMarker(ctx context.Context, pos vec.Vec3, markerType roadmap.MarkerType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roadmap.SaveStateToUndoHistory()
	if !s.roadmap.RemoveMarker(pos, markerType) {
		s.roadmap.DiscardLastUndoState()
		return false, nil
	}
	return true, s.flushMarkers(ctx)
}

// SetPathfinderGoal заменяет цель поиска пути; та же цель ничего не меняет
func (s *Service) SetPathfinderGoal(ctx context.Context, pos vec.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals := s.roadmap.MarkersOfType(roadmap.PathfinderGoal)
	if len(goals) == 1 && goals[0].Pos == pos {
		return nil
	}

	s.roadmap.SaveStateToUndoHistory()
	s.roadmap.ClearMarkersOfType(roadmap.PathfinderGoal)
	s.roadmap.AddMarker(pos, roadmap.PathfinderGoal)
	return s.flushMarkers(ctx)
}

func (s *Service) flushMarkers(ctx context.Context) error {
	if err := s.flush(ctx, false); err != nil {
		return err
	}
	s.publish(ctx, eventbus.EventMarkersChanged, eventbus.CountPayload{Count: s.roadmap.MarkerCount()})
	return nil
}

// Markers возвращает маркеры; nil-тип означает все
func (s *Service) Markers(markerType *roadmap.MarkerType) []roadmap.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if markerType == nil {
		return s.roadmap.Markers()
	}
	return s.roadmap.MarkersOfType(*markerType)
}

// ChunkBlocks возвращает записи чанка
func (s *Service) ChunkBlocks(coords vec.Vec2) ([]roadmap.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunk, ok := s.roadmap.GetChunk(coords)
	if !ok {
		return nil, false
	}
	return chunk.Blocks(), true
}

// Stats возвращает сводку состояния карты
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Chunks:        s.roadmap.ChunkCount(),
		Blocks:        s.roadmap.BlockCount(),
		RoadBlocks:    s.roadmap.RoadBlockCount(),
		Markers:       s.roadmap.MarkerCount(),
		CutoffMarkers: len(s.roadmap.MarkersOfType(roadmap.CutoffPoint)),
		UndoDepth:     s.roadmap.UndoDepth(),
		RedoDepth:     s.roadmap.RedoDepth(),
		Dirty:         s.roadmap.IsDirty(),
	}
}

// Close закрывает хранилище
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Close()
}
