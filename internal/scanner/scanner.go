package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/roadmap/internal/config"
	"github.com/annel0/roadmap/internal/logging"
	"github.com/annel0/roadmap/internal/metrics"
	"github.com/annel0/roadmap/internal/roadmap"
	"github.com/annel0/roadmap/internal/vec"
	"github.com/annel0/roadmap/internal/worldquery"
	"github.com/google/uuid"
)

var (
	// ErrNoFloor под наблюдателем не найден пол
	ErrNoFloor = errors.New("scanner: под наблюдателем не найден пол")
	// ErrNotRoad наблюдатель стоит не на дорожном материале
	ErrNotRoad = errors.New("scanner: начальный блок не является дорогой")
)

// Observer источник текущей позиции наблюдателя.
// Позиция читается на каждой итерации, наблюдатель может двигаться во время скана.
type Observer interface {
	Position() vec.Vec3Float
}

// StaticObserver неподвижный наблюдатель
type StaticObserver vec.Vec3Float

func (o StaticObserver) Position() vec.Vec3Float {
	return vec.Vec3Float(o)
}

// ObserverFunc адаптер функции к Observer
type ObserverFunc func() vec.Vec3Float

func (f ObserverFunc) Position() vec.Vec3Float {
	return f()
}

// ScanResult итог одного скана
type ScanResult struct {
	RunID          string        `json:"run_id"`
	Started        bool          `json:"started"`
	Origin         vec.Vec3      `json:"origin"`
	Iterations     int           `json:"iterations"`
	BlocksRecorded int           `json:"blocks_recorded"` // новые и изменённые записи
	NewBlocks      int           `json:"new_blocks"`
	VoidBlocks     int           `json:"void_blocks"`
	CutoffMarkers  int           `json:"cutoff_markers"`
	CutoffsCleared int           `json:"cutoffs_cleared"`
	LimitReached   bool          `json:"limit_reached"`
	Duration       time.Duration `json:"duration"`
}

// Scanner обходит дорожную сеть от позиции наблюдателя и записывает её в карту
type Scanner struct {
	roadmap    *roadmap.Roadmap
	world      worldquery.World
	classifier *worldquery.Classifier
	cfg        config.ScannerConfig
	metrics    *metrics.ScanMetrics
	logger     *logging.Logger
}

// NewScanner создаёт сканер. Незаданные поля cfg заполняются значениями по умолчанию.
func NewScanner(rm *roadmap.Roadmap, world worldquery.World, cfg config.ScannerConfig) *Scanner {
	full := config.Config{Scanner: cfg}
	full.ApplyDefaults()
	return &Scanner{
		roadmap:    rm,
		world:      world,
		classifier: worldquery.NewClassifier(full.Scanner),
		cfg:        full.Scanner,
		logger:     logging.GetComponentLogger("scanner"),
	}
}

// SetMetrics подключает Prometheus-метрики
func (s *Scanner) SetMetrics(m *metrics.ScanMetrics) {
	s.metrics = m
}

// SetLogger заменяет логгер сканера
func (s *Scanner) SetLogger(logger *logging.Logger) {
	s.logger = logger
}

// Config возвращает действующие настройки
func (s *Scanner) Config() config.ScannerConfig {
	return s.cfg
}

// Scan выполняет один обход в ширину.
// Если скан не может начаться, возвращается Started=false и ErrNoFloor или ErrNotRoad.
// Отмена ctx проверяется на каждой итерации; уже записанные данные сохраняются.
func (s *Scanner) Scan(ctx context.Context, observer Observer) (result ScanResult, err error) {
	start := time.Now()
	result.RunID = uuid.NewString()

	defer func() {
		result.Duration = time.Since(start)
		s.metrics.ObserveScan(outcomeOf(result, err), result.Iterations,
			result.BlocksRecorded, result.CutoffMarkers, result.Duration)
	}()

	feet := observer.Position().ToBlock()
	origin, state, found, err := s.findFloor(ctx, feet, feet.Y, feet.Y-s.cfg.ScanHeight)
	if err != nil {
		return result, fmt.Errorf("поиск пола под %v: %w", feet, err)
	}
	if !found {
		s.logger.Info("Скан %s не начат: нет пола под %v", result.RunID, feet)
		return result, ErrNoFloor
	}
	if !s.classifier.IsRoad(state.MaterialID) {
		s.logger.Info("Скан %s не начат: %s в %v не дорога", result.RunID, state.MaterialID, origin)
		return result, ErrNotRoad
	}

	clearance, err := s.clearance(ctx, origin)
	if err != nil {
		return result, err
	}

	result.Started = true
	result.Origin = origin
	s.logger.Info("🔍 Скан %s начат от %v (радиус %.0f)", result.RunID, origin, s.cfg.ScanRadius)

	s.record(roadmap.NewRoadBlock(origin, clearance, state.MaterialID), &result)
	if s.roadmap.RemoveMarker(origin, roadmap.CutoffPoint) {
		result.CutoffsCleared++
	}

	tracker := NewTracker(s.roadmap)
	tracker.MarkScanned(origin)
	tracker.EnqueuePendingPositions(origin.AdjacentPositions())

	for tracker.HasPending() {
		if result.Iterations >= s.cfg.MaxIterations {
			result.LimitReached = true
			break
		}
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Скан %s прерван после %d итераций: %v", result.RunID, result.Iterations, err)
			return result, err
		}

		pos, _ := tracker.DequeuePending()
		result.Iterations++
		if err := s.resolve(ctx, observer, tracker, pos, &result); err != nil {
			return result, fmt.Errorf("обработка %v: %w", pos, err)
		}
	}

	if result.LimitReached {
		s.logger.Warn("⚠️ Скан %s достиг предела итераций %d, в очереди осталось %d позиций",
			result.RunID, s.cfg.MaxIterations, tracker.PendingCount())
	}
	s.logger.Info("✅ Скан %s завершён: итераций %d, записано %d (новых %d, пустых %d), обрывов %d за %v",
		result.RunID, result.Iterations, result.BlocksRecorded, result.NewBlocks,
		result.VoidBlocks, result.CutoffMarkers, time.Since(start))
	return result, nil
}

// resolve обрабатывает одну позицию из очереди
func (s *Scanner) resolve(ctx context.Context, observer Observer, tracker *Tracker, pos vec.Vec3, result *ScanResult) error {
	defer tracker.MarkScanned(pos)

	if pos.DistanceToFloat(observer.Position()) > s.cfg.ScanRadius {
		if !s.roadmap.ContainsBlockNear(pos, roadmap.MarkerHeight) &&
			s.roadmap.AddMarker(pos, roadmap.CutoffPoint) {
			result.CutoffMarkers++
		}
		return nil
	}

	floor, state, found, err := s.findFloor(ctx, pos, pos.Y+1, pos.Y-1)
	if err != nil {
		return err
	}
	if !found {
		if s.cfg.ShouldRecordVoid() {
			s.record(roadmap.NewVoidBlock(pos), result)
			result.VoidBlocks++
		}
		if s.roadmap.RemoveMarker(pos, roadmap.CutoffPoint) {
			result.CutoffsCleared++
		}
		return nil
	}

	if !roadmap.ValidMaterialName(state.MaterialID) {
		s.logger.Warn("Пропуск %v: материал %q нельзя записать", floor, state.MaterialID)
		return nil
	}

	clearance, err := s.clearance(ctx, floor)
	if err != nil {
		return err
	}

	block := roadmap.DetectBlock(floor, clearance, state.MaterialID, s.cfg.RoadBlocks)
	s.record(block, result)
	if s.roadmap.RemoveMarker(floor, roadmap.CutoffPoint) {
		result.CutoffsCleared++
	}
	tracker.MarkScanned(floor)

	if block.IsRoad || s.cfg.ScanEverything {
		tracker.EnqueuePendingPositions(floor.AdjacentPositions())
	}
	return nil
}

// record записывает блок в карту; идентичная запись не помечает чанк изменённым
func (s *Scanner) record(b roadmap.Block, result *ScanResult) {
	existing, ok := s.roadmap.GetBlock(b.Pos)
	if ok && existing == b {
		return
	}
	if !ok {
		result.NewBlocks++
	}
	s.roadmap.SetBlock(b)
	result.BlocksRecorded++
}

func outcomeOf(result ScanResult, err error) string {
	switch {
	case !result.Started:
		if errors.Is(err, ErrNoFloor) || errors.Is(err, ErrNotRoad) {
			return metrics.OutcomeNotStarted
		}
		return metrics.OutcomeError
	case err != nil:
		return metrics.OutcomeError
	case result.LimitReached:
		return metrics.OutcomeLimit
	default:
		return metrics.OutcomeCompleted
	}
}
