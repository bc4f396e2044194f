package roadmap

import "github.com/annel0/roadmap/internal/vec"

// snapshot независимая копия состояния карты
type snapshot struct {
	chunks  map[vec.Vec2]*Chunk
	markers []Marker
}

func (r *Roadmap) takeSnapshot() snapshot {
	chunks := make(map[vec.Vec2]*Chunk, len(r.chunks))
	for coords, chunk := range r.chunks {
		chunks[coords] = chunk.Clone()
	}
	markers := make([]Marker, len(r.markers))
	copy(markers, r.markers)
	return snapshot{chunks: chunks, markers: markers}
}

// restore заменяет состояние и помечает различия для следующей синхронизации
func (r *Roadmap) restore(s snapshot) {
	for coords := range r.chunks {
		if _, ok := s.chunks[coords]; !ok {
			r.markRemoved(coords)
		}
	}
	for coords := range s.chunks {
		r.markDirty(coords)
	}
	r.chunks = s.chunks
	r.markers = s.markers
}

// SaveStateToUndoHistory сохраняет копию текущего состояния.
// Самая старая запись вытесняется при превышении лимита, история повтора очищается.
func (r *Roadmap) SaveStateToUndoHistory() {
	r.undoHistory = append(r.undoHistory, r.takeSnapshot())
	r.trimUndoHistory()
	r.redoHistory = nil
}

// trimUndoHistory вытесняет старые снимки в новый срез, чтобы старый массив не удерживал их
func (r *Roadmap) trimUndoHistory() {
	if len(r.undoHistory) <= r.historyLimit {
		return
	}
	kept := make([]snapshot, r.historyLimit, r.historyLimit+1)
	copy(kept, r.undoHistory[len(r.undoHistory)-r.historyLimit:])
	r.undoHistory = kept
}

// RevertStateFromUndoHistory откатывает карту к последнему сохранённому состоянию
func (r *Roadmap) RevertStateFromUndoHistory() bool {
	if len(r.undoHistory) == 0 {
		return false
	}
	last := r.undoHistory[len(r.undoHistory)-1]
	r.undoHistory = r.undoHistory[:len(r.undoHistory)-1]
	r.redoHistory = append(r.redoHistory, r.takeSnapshot())
	r.restore(last)
	return true
}

// RestoreStateFromRedoHistory повторяет последнее отменённое действие
func (r *Roadmap) RestoreStateFromRedoHistory() bool {
	if len(r.redoHistory) == 0 {
		return false
	}
	last := r.redoHistory[len(r.redoHistory)-1]
	r.redoHistory = r.redoHistory[:len(r.redoHistory)-1]
	r.undoHistory = append(r.undoHistory, r.takeSnapshot())
	r.trimUndoHistory()
	r.restore(last)
	return true
}

// ResetHistory очищает историю отмены и повтора
func (r *Roadmap) ResetHistory() {
	r.undoHistory = nil
	r.redoHistory = nil
}

// UndoDepth возвращает число доступных отмен
func (r *Roadmap) UndoDepth() int {
	return len(r.undoHistory)
}

// RedoDepth возвращает число доступных повторов
func (r *Roadmap) RedoDepth() int {
	return len(r.redoHistory)
}

// HistoryLimit возвращает максимальную глубину истории
func (r *Roadmap) HistoryLimit() int {
	return r.historyLimit
}

// DiscardLastUndoState удаляет последний снимок, не восстанавливая его.
// Используется, когда действие после SaveStateToUndoHistory ничего не изменило.
func (r *Roadmap) DiscardLastUndoState() bool {
	if len(r.undoHistory) == 0 {
		return false
	}
	r.undoHistory = r.undoHistory[:len(r.undoHistory)-1]
	return true
}
