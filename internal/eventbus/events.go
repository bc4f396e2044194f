package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrClosed шина уже закрыта
var ErrClosed = errors.New("eventbus: шина закрыта")

// Source имя источника событий карты
const Source = "roadmap"

// Типы событий карты
const (
	EventScanCompleted   = "ScanCompleted"
	EventHistoryRestored = "HistoryRestored"
	EventChunksCleared   = "ChunksCleared"
	EventRoadmapReloaded = "RoadmapReloaded"
	EventMarkersChanged  = "MarkersChanged"
	EventOptimized       = "RoadmapOptimized"
)

// payloadVersion версия схемы полезной нагрузки
const payloadVersion = 1

// NewEnvelope упаковывает полезную нагрузку в JSON
func NewEnvelope(eventType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("сериализация события %s: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    Source,
		EventType: eventType,
		Version:   payloadVersion,
		Payload:   data,
	}, nil
}

// Decode разбирает полезную нагрузку события
func (ev *Envelope) Decode(out interface{}) error {
	return json.Unmarshal(ev.Payload, out)
}

// ScanCompletedPayload итог скана
type ScanCompletedPayload struct {
	RunID          string `json:"run_id"`
	OriginX        int    `json:"origin_x"`
	OriginY        int    `json:"origin_y"`
	OriginZ        int    `json:"origin_z"`
	BlocksRecorded int    `json:"blocks_recorded"`
	CutoffMarkers  int    `json:"cutoff_markers"`
	LimitReached   bool   `json:"limit_reached"`
	Interrupted    bool   `json:"interrupted"`
}

// HistoryRestoredPayload отмена или повтор
type HistoryRestoredPayload struct {
	Direction string `json:"direction"` // undo | redo
	UndoDepth int    `json:"undo_depth"`
	RedoDepth int    `json:"redo_depth"`
}

// ChunksClearedPayload удаление чанков
type ChunksClearedPayload struct {
	All           bool `json:"all"`
	CenterX       int  `json:"center_x,omitempty"`
	CenterZ       int  `json:"center_z,omitempty"`
	Radius        int  `json:"radius,omitempty"`
	RemovedChunks int  `json:"removed_chunks"`
}

// CountPayload событие с единственным счётчиком
type CountPayload struct {
	Count int `json:"count"`
}
