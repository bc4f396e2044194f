package roadmap

import (
	"sort"

	"github.com/annel0/roadmap/internal/logging"
	"github.com/annel0/roadmap/internal/storage"
	"github.com/annel0/roadmap/internal/vec"
)

// DefaultHistoryLimit глубина истории отмены по умолчанию
const DefaultHistoryLimit = 16

// Roadmap хранит записи поверхности, разбитые на чанки, и маркеры
type Roadmap struct {
	chunks  map[vec.Vec2]*Chunk
	markers []Marker

	dirtyChunks   map[vec.Vec2]struct{}
	removedChunks map[vec.Vec2]struct{}

	undoHistory  []snapshot
	redoHistory  []snapshot
	historyLimit int

	backend storage.Backend
	logger  *logging.Logger
}

// NewRoadmap создаёт пустую карту поверх хранилища
func NewRoadmap(backend storage.Backend, historyLimit int) *Roadmap {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Roadmap{
		chunks:        make(map[vec.Vec2]*Chunk),
		dirtyChunks:   make(map[vec.Vec2]struct{}),
		removedChunks: make(map[vec.Vec2]struct{}),
		historyLimit:  historyLimit,
		backend:       backend,
		logger:        logging.GetComponentLogger("roadmap"),
	}
}

// SetLogger заменяет логгер карты
func (r *Roadmap) SetLogger(logger *logging.Logger) {
	r.logger = logger
}

// Backend возвращает хранилище карты
func (r *Roadmap) Backend() storage.Backend {
	return r.backend
}

func (r *Roadmap) markDirty(coords vec.Vec2) {
	r.dirtyChunks[coords] = struct{}{}
	delete(r.removedChunks, coords)
}

func (r *Roadmap) markRemoved(coords vec.Vec2) {
	r.removedChunks[coords] = struct{}{}
	delete(r.dirtyChunks, coords)
}

// ==================== Записи ====================

// GetBlock возвращает запись по точной позиции
func (r *Roadmap) GetBlock(pos vec.Vec3) (Block, bool) {
	chunk, ok := r.chunks[pos.ToChunkCoords()]
	if !ok {
		return Block{}, false
	}
	return chunk.GetBlock(pos)
}

// GetBlockNear ищет запись в колонне pos с допуском tolerance по высоте.
// Точная позиция проверяется первой.
func (r *Roadmap) GetBlockNear(pos vec.Vec3, tolerance int) (Block, bool) {
	chunk, ok := r.chunks[pos.ToChunkCoords()]
	if !ok {
		return Block{}, false
	}
	if b, ok := chunk.GetBlock(pos); ok {
		return b, true
	}
	for dy := 1; dy <= tolerance; dy++ {
		if b, ok := chunk.GetBlock(pos.Up(dy)); ok {
			return b, true
		}
		if b, ok := chunk.GetBlock(pos.Up(-dy)); ok {
			return b, true
		}
	}
	return Block{}, false
}

// SetBlock добавляет или заменяет запись, создавая чанк при необходимости
func (r *Roadmap) SetBlock(b Block) {
	coords := b.Pos.ToChunkCoords()
	chunk, ok := r.chunks[coords]
	if !ok {
		chunk = NewChunk(coords)
		r.chunks[coords] = chunk
	}
	chunk.SetBlock(b)
	r.markDirty(coords)
}

// AddBlock добавляет запись, если позиция свободна
func (r *Roadmap) AddBlock(b Block) bool {
	if r.ContainsBlock(b.Pos) {
		return false
	}
	r.SetBlock(b)
	return true
}

// ReplaceBlock заменяет существующую запись
func (r *Roadmap) ReplaceBlock(b Block) bool {
	if !r.ContainsBlock(b.Pos) {
		return false
	}
	r.SetBlock(b)
	return true
}

// RemoveBlock удаляет запись; опустевший чанк удаляется вместе с файлом
func (r *Roadmap) RemoveBlock(pos vec.Vec3) bool {
	coords := pos.ToChunkCoords()
	chunk, ok := r.chunks[coords]
	if !ok || !chunk.RemoveBlock(pos) {
		return false
	}
	if chunk.IsEmpty() {
		delete(r.chunks, coords)
		r.markRemoved(coords)
	} else {
		r.markDirty(coords)
	}
	return true
}

// ContainsBlock проверяет наличие записи по точной позиции
func (r *Roadmap) ContainsBlock(pos vec.Vec3) bool {
	_, ok := r.GetBlock(pos)
	return ok
}

// ContainsBlockNear проверяет наличие записи в колонне с допуском по высоте
func (r *Roadmap) ContainsBlockNear(pos vec.Vec3, tolerance int) bool {
	_, ok := r.GetBlockNear(pos, tolerance)
	return ok
}

// Blocks возвращает все записи карты
func (r *Roadmap) Blocks() []Block {
	var result []Block
	for _, chunk := range r.Chunks() {
		result = append(result, chunk.Blocks()...)
	}
	return result
}

// BlockCount возвращает общее число записей
func (r *Roadmap) BlockCount() int {
	total := 0
	for _, chunk := range r.chunks {
		total += chunk.BlockCount()
	}
	return total
}

// RoadBlockCount возвращает число дорожных записей
func (r *Roadmap) RoadBlockCount() int {
	total := 0
	for _, chunk := range r.chunks {
		for _, b := range chunk.blocks {
			if b.IsRoad {
				total++
			}
		}
	}
	return total
}

// ==================== Чанки ====================

// GetChunk возвращает чанк по координатам
func (r *Roadmap) GetChunk(coords vec.Vec2) (*Chunk, bool) {
	chunk, ok := r.chunks[coords]
	return chunk, ok
}

// SetChunk устанавливает чанк целиком. Пустой чанк равносилен удалению.
func (r *Roadmap) SetChunk(chunk *Chunk) {
	if chunk.IsEmpty() {
		r.RemoveChunk(chunk.Coords)
		return
	}
	r.chunks[chunk.Coords] = chunk
	r.markDirty(chunk.Coords)
}

// RemoveChunk удаляет чанк и планирует удаление его файла
func (r *Roadmap) RemoveChunk(coords vec.Vec2) bool {
	if _, ok := r.chunks[coords]; !ok {
		return false
	}
	delete(r.chunks, coords)
	r.markRemoved(coords)
	return true
}

// ClearChunks удаляет все чанки
func (r *Roadmap) ClearChunks() bool {
	if len(r.chunks) == 0 {
		return false
	}
	for coords := range r.chunks {
		r.markRemoved(coords)
	}
	r.chunks = make(map[vec.Vec2]*Chunk)
	return true
}

// ContainsChunk проверяет наличие чанка
func (r *Roadmap) ContainsChunk(coords vec.Vec2) bool {
	_, ok := r.chunks[coords]
	return ok
}

// ChunkCount возвращает число чанков
func (r *Roadmap) ChunkCount() int {
	return len(r.chunks)
}

// Chunks возвращает все чанки, упорядоченные по координатам
func (r *Roadmap) Chunks() []*Chunk {
	result := make([]*Chunk, 0, len(r.chunks))
	for _, chunk := range r.chunks {
		result = append(result, chunk)
	}
	sortChunks(result)
	return result
}

// GetChunksInRadius возвращает существующие чанки в квадрате (расстояние Чебышёва)
func (r *Roadmap) GetChunksInRadius(center vec.Vec2, radius int) []*Chunk {
	if radius < 0 {
		return nil
	}
	var result []*Chunk
	// перебор квадрата выгоден, только если он меньше карты; radius < len исключает переполнение
	if radius < len(r.chunks) && (2*radius+1)*(2*radius+1) < len(r.chunks) {
		for x := center.X - radius; x <= center.X+radius; x++ {
			for z := center.Y - radius; z <= center.Y+radius; z++ {
				if chunk, ok := r.chunks[vec.Vec2{X: x, Y: z}]; ok {
					result = append(result, chunk)
				}
			}
		}
	} else {
		for coords, chunk := range r.chunks {
			if coords.ChebyshevDistance(center) <= radius {
				result = append(result, chunk)
			}
		}
	}
	sortChunks(result)
	return result
}

func sortChunks(chunks []*Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		a, b := chunks[i].Coords, chunks[j].Coords
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
}

// ==================== Маркеры ====================

// AddMarker добавляет маркер, если поблизости нет маркера того же типа
func (r *Roadmap) AddMarker(pos vec.Vec3, markerType MarkerType) bool {
	if r.TestMarker(pos, markerType) {
		return false
	}
	r.markers = append(r.markers, Marker{Pos: pos, Type: markerType})
	return true
}

// RemoveMarker удаляет все маркеры типа, совпадающие с позицией
func (r *Roadmap) RemoveMarker(pos vec.Vec3, markerType MarkerType) bool {
	kept := r.markers[:0]
	removed := false
	for _, m := range r.markers {
		if m.Matches(pos, markerType) {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	r.markers = kept
	return removed
}

// TestMarker проверяет наличие совпадающего маркера
func (r *Roadmap) TestMarker(pos vec.Vec3, markerType MarkerType) bool {
	for _, m := range r.markers {
		if m.Matches(pos, markerType) {
			return true
		}
	}
	return false
}

// Markers возвращает копию списка маркеров
func (r *Roadmap) Markers() []Marker {
	result := make([]Marker, len(r.markers))
	copy(result, r.markers)
	return result
}

// MarkersOfType возвращает маркеры указанного типа
func (r *Roadmap) MarkersOfType(markerType MarkerType) []Marker {
	var result []Marker
	for _, m := range r.markers {
		if m.Type == markerType {
			result = append(result, m)
		}
	}
	return result
}

// MarkerCount возвращает число маркеров
func (r *Roadmap) MarkerCount() int {
	return len(r.markers)
}

// ClearMarkers удаляет все маркеры
func (r *Roadmap) ClearMarkers() bool {
	if len(r.markers) == 0 {
		return false
	}
	r.markers = nil
	return true
}

// ClearMarkersOfType удаляет маркеры типа и возвращает их число
func (r *Roadmap) ClearMarkersOfType(markerType MarkerType) int {
	return r.removeMarkersWhere(func(m Marker) bool { return m.Type == markerType })
}

// ClearMarkersInRadius удаляет маркеры типа в чанках на расстоянии Чебышёва не более radius
func (r *Roadmap) ClearMarkersInRadius(center vec.Vec2, radius int, markerType MarkerType) int {
	return r.removeMarkersWhere(func(m Marker) bool {
		return m.Type == markerType && m.Pos.ToChunkCoords().ChebyshevDistance(center) <= radius
	})
}

func (r *Roadmap) removeMarkersWhere(pred func(Marker) bool) int {
	kept := r.markers[:0]
	removed := 0
	for _, m := range r.markers {
		if pred(m) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.markers = kept
	return removed
}

// ==================== Обслуживание ====================

// Optimize удаляет записи рельефа, у которых нет дорожного соседа.
// Соседи ищутся по сторонам света с допуском 1 по высоте.
func (r *Roadmap) Optimize() int {
	var orphans []vec.Vec3
	for _, chunk := range r.chunks {
		for pos, b := range chunk.blocks {
			if b.IsRoad {
				continue
			}
			if !r.hasRoadNeighbour(pos) {
				orphans = append(orphans, pos)
			}
		}
	}
	for _, pos := range orphans {
		r.RemoveBlock(pos)
	}
	if len(orphans) > 0 {
		r.logger.Debug("Оптимизация: удалено %d записей рельефа", len(orphans))
	}
	return len(orphans)
}

func (r *Roadmap) hasRoadNeighbour(pos vec.Vec3) bool {
	for _, n := range pos.AdjacentPositions() {
		for dy := -1; dy <= 1; dy++ {
			if b, ok := r.GetBlock(n.Up(dy)); ok && b.IsRoad {
				return true
			}
		}
	}
	return false
}

// FindFrontierGroups группирует маркеры обрыва и сортирует группы по удалению от ref
func (r *Roadmap) FindFrontierGroups(ref vec.Vec3, mergeRange float64) []*PosGroup {
	collection := NewPosGroupCollection(mergeRange)
	for _, m := range r.markers {
		if m.Type == CutoffPoint {
			collection.AddPos(m.Pos)
		}
	}
	groups := collection.Groups()
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Center().DistanceTo(ref) < groups[j].Center().DistanceTo(ref)
	})
	return groups
}
