package roadmap

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/roadmap/internal/logging"
	"github.com/annel0/roadmap/internal/vec"
)

// SyncStats итог синхронизации с хранилищем
type SyncStats struct {
	ChunksWritten  int
	ChunksRemoved  int
	MarkersWritten bool
	Duration       time.Duration
}

// WriteFiles сохраняет изменения в хранилище.
// Без force пишутся только изменённые чанки и удаляются файлы удалённых.
// С force все файлы карты удаляются и записываются заново.
// При ошибке наборы изменений не сбрасываются, повторный вызов безопасен.
func (r *Roadmap) WriteFiles(ctx context.Context, force bool) (SyncStats, error) {
	start := time.Now()
	var stats SyncStats
	var err error

	if force {
		stats, err = r.rewriteAll(ctx)
	} else {
		stats, err = r.writeChanges(ctx)
	}
	if err != nil {
		r.logger.Error("Ошибка синхронизации карты: %v", err)
		return stats, err
	}

	if err := r.writeMarkers(ctx); err != nil {
		r.logger.Error("Ошибка записи маркеров: %v", err)
		return stats, err
	}
	stats.MarkersWritten = len(r.markers) > 0

	r.dirtyChunks = make(map[vec.Vec2]struct{})
	r.removedChunks = make(map[vec.Vec2]struct{})
	stats.Duration = time.Since(start)

	r.logger.Debug("💾 Карта сохранена: записано %d, удалено %d чанков (force=%v) за %v",
		stats.ChunksWritten, stats.ChunksRemoved, force, stats.Duration)
	return stats, nil
}

func (r *Roadmap) writeChanges(ctx context.Context) (SyncStats, error) {
	var stats SyncStats
	for coords := range r.removedChunks {
		if _, err := r.backend.Remove(ctx, ChunkFilename(coords)); err != nil {
			return stats, fmt.Errorf("удаление чанка %d,%d: %w", coords.X, coords.Y, err)
		}
		stats.ChunksRemoved++
	}
	for coords := range r.dirtyChunks {
		chunk, ok := r.chunks[coords]
		if !ok {
			continue
		}
		if err := r.writeChunk(ctx, chunk); err != nil {
			return stats, err
		}
		stats.ChunksWritten++
	}
	return stats, nil
}

func (r *Roadmap) rewriteAll(ctx context.Context) (SyncStats, error) {
	var stats SyncStats
	names, err := r.backend.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("получение списка файлов: %w", err)
	}
	for _, name := range names {
		if _, ok := ParseChunkFilename(name); !ok {
			continue
		}
		if _, err := r.backend.Remove(ctx, name); err != nil {
			return stats, fmt.Errorf("удаление %s: %w", name, err)
		}
		stats.ChunksRemoved++
	}
	for _, chunk := range r.Chunks() {
		if err := r.writeChunk(ctx, chunk); err != nil {
			return stats, err
		}
		stats.ChunksWritten++
	}
	return stats, nil
}

func (r *Roadmap) writeChunk(ctx context.Context, chunk *Chunk) error {
	if err := r.backend.Write(ctx, ChunkFilename(chunk.Coords), []byte(chunk.String())); err != nil {
		return fmt.Errorf("запись чанка %d,%d: %w", chunk.Coords.X, chunk.Coords.Y, err)
	}
	logging.LogChunkFlush(r.logger, chunk.Coords.X, chunk.Coords.Y, chunk.BlockCount())
	return nil
}

// writeMarkers записывает файл маркеров; без маркеров файл удаляется
func (r *Roadmap) writeMarkers(ctx context.Context) error {
	name := MarkersFilename()
	if len(r.markers) == 0 {
		if _, err := r.backend.Remove(ctx, name); err != nil {
			return fmt.Errorf("удаление %s: %w", name, err)
		}
		return nil
	}
	if err := r.backend.Write(ctx, name, []byte(EncodeMarkers(r.markers))); err != nil {
		return fmt.Errorf("запись %s: %w", name, err)
	}
	return nil
}

// ReadFiles заменяет содержимое карты данными из хранилища.
// При ошибке разбора текущее состояние не меняется. История сбрасывается.
func (r *Roadmap) ReadFiles(ctx context.Context) error {
	names, err := r.backend.List(ctx)
	if err != nil {
		return fmt.Errorf("получение списка файлов: %w", err)
	}

	chunks := make(map[vec.Vec2]*Chunk)
	var markers []Marker

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !IsRoadmapFilename(name) {
			continue
		}
		data, err := r.backend.Read(ctx, name)
		if err != nil {
			return fmt.Errorf("чтение %s: %w", name, err)
		}

		if IsMarkersFilename(name) {
			parsed, err := DecodeMarkers(string(data))
			if err != nil {
				return withFile(err, name)
			}
			markers = append(markers, parsed...)
			continue
		}

		coords, _ := ParseChunkFilename(name)
		if len(splitLines(string(data))) == 0 {
			r.logger.Warn("Пропущен пустой файл чанка %s", name)
			continue
		}
		chunk, err := ParseChunk(string(data))
		if err != nil {
			return withFile(err, name)
		}
		if chunk.Coords != coords {
			return withFile(&ParseError{
				LineNo: 1,
				Reason: fmt.Sprintf("записи принадлежат чанку %d,%d", chunk.Coords.X, chunk.Coords.Y),
			}, name)
		}
		chunks[coords] = chunk
	}

	r.chunks = chunks
	r.markers = markers
	r.dirtyChunks = make(map[vec.Vec2]struct{})
	r.removedChunks = make(map[vec.Vec2]struct{})
	r.ResetHistory()

	r.logger.Info("📂 Карта загружена: %d чанков, %d записей, %d маркеров",
		len(r.chunks), r.BlockCount(), len(r.markers))
	return nil
}

// IsDirty сообщает о несохранённых изменениях чанков
func (r *Roadmap) IsDirty() bool {
	return len(r.dirtyChunks) > 0 || len(r.removedChunks) > 0
}
