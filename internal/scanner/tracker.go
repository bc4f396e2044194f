package scanner

import (
	"sort"

	"github.com/annel0/roadmap/internal/roadmap"
	"github.com/annel0/roadmap/internal/vec"
)

// fuzzyRange допуск по высоте при сравнении позиций обхода
const fuzzyRange = 1

// FenceChecker сообщает о маркерах-барьерах
type FenceChecker interface {
	TestMarker(pos vec.Vec3, markerType roadmap.MarkerType) bool
}

// columnIndex хранит отсортированные высоты для каждой колонны
type columnIndex map[vec.Vec2][]int

func column(pos vec.Vec3) vec.Vec2 {
	return vec.Vec2{X: pos.X, Y: pos.Z}
}

// containsNear ищет высоту в пределах ±fuzzyRange
func (idx columnIndex) containsNear(pos vec.Vec3) bool {
	ys := idx[column(pos)]
	i := sort.SearchInts(ys, pos.Y-fuzzyRange)
	return i < len(ys) && ys[i] <= pos.Y+fuzzyRange
}

func (idx columnIndex) contains(pos vec.Vec3) bool {
	ys := idx[column(pos)]
	i := sort.SearchInts(ys, pos.Y)
	return i < len(ys) && ys[i] == pos.Y
}

func (idx columnIndex) insert(pos vec.Vec3) bool {
	key := column(pos)
	ys := idx[key]
	i := sort.SearchInts(ys, pos.Y)
	if i < len(ys) && ys[i] == pos.Y {
		return false
	}
	ys = append(ys, 0)
	copy(ys[i+1:], ys[i:])
	ys[i] = pos.Y
	idx[key] = ys
	return true
}

func (idx columnIndex) remove(pos vec.Vec3) {
	key := column(pos)
	ys := idx[key]
	i := sort.SearchInts(ys, pos.Y)
	if i >= len(ys) || ys[i] != pos.Y {
		return
	}
	ys = append(ys[:i], ys[i+1:]...)
	if len(ys) == 0 {
		delete(idx, key)
	} else {
		idx[key] = ys
	}
}

// Tracker отслеживает посещённые и ожидающие позиции одного скана.
// Позиции сравниваются нечётко: та же колонна, высота ±1.
type Tracker struct {
	fences FenceChecker

	scanned      columnIndex
	scannedCount int

	queue        []vec.Vec3
	head         int
	pendingIndex columnIndex
}

// NewTracker создаёт трекер; fences может быть nil
func NewTracker(fences FenceChecker) *Tracker {
	return &Tracker{
		fences:       fences,
		scanned:      make(columnIndex),
		pendingIndex: make(columnIndex),
	}
}

// MarkScanned отмечает позицию посещённой
func (t *Tracker) MarkScanned(pos vec.Vec3) bool {
	if !t.scanned.insert(pos) {
		return false
	}
	t.scannedCount++
	return true
}

// IsScanned проверяет, посещалась ли позиция (нечётко)
func (t *Tracker) IsScanned(pos vec.Vec3) bool {
	return t.scanned.containsNear(pos)
}

// IsPending проверяет, ожидает ли позиция обработки (нечётко)
func (t *Tracker) IsPending(pos vec.Vec3) bool {
	return t.pendingIndex.containsNear(pos)
}

// IsFenced проверяет наличие барьера на позиции
func (t *Tracker) IsFenced(pos vec.Vec3) bool {
	return t.fences != nil && t.fences.TestMarker(pos, roadmap.ScanFence)
}

// EnqueuePendingPositions ставит в очередь позиции, которые не посещены,
// не ожидают обработки и не закрыты барьером. Возвращает число добавленных.
func (t *Tracker) EnqueuePendingPositions(positions []vec.Vec3) int {
	added := 0
	for _, pos := range positions {
		if t.IsScanned(pos) || t.IsPending(pos) || t.IsFenced(pos) {
			continue
		}
		t.queue = append(t.queue, pos)
		t.pendingIndex.insert(pos)
		added++
	}
	return added
}

// DequeuePending извлекает следующую позицию в порядке FIFO
func (t *Tracker) DequeuePending() (vec.Vec3, bool) {
	if t.head >= len(t.queue) {
		return vec.Vec3{}, false
	}
	pos := t.queue[t.head]
	t.head++
	t.pendingIndex.remove(pos)

	// освобождаем обработанную часть очереди
	if t.head > 1024 && t.head*2 > len(t.queue) {
		t.queue = append([]vec.Vec3(nil), t.queue[t.head:]...)
		t.head = 0
	}
	return pos, true
}

// HasPending сообщает, остались ли позиции в очереди
func (t *Tracker) HasPending() bool {
	return t.head < len(t.queue)
}

// PendingCount возвращает длину очереди
func (t *Tracker) PendingCount() int {
	return len(t.queue) - t.head
}

// ScannedCount возвращает число посещённых позиций
func (t *Tracker) ScannedCount() int {
	return t.scannedCount
}
