package roadmap

import (
	"fmt"
	"strings"

	"github.com/annel0/roadmap/internal/vec"
)

// MarkerHeight допуск по высоте при сравнении маркеров
const MarkerHeight = 3

const markerFieldCount = 4

// MarkerType тип маркера
type MarkerType int

const (
	// CutoffPoint граница скана, оборванного по радиусу
	CutoffPoint MarkerType = iota
	// ScanFence барьер, через который обход не проходит
	ScanFence
	// PathfinderGoal цель поиска пути (только хранится)
	PathfinderGoal
)

var markerTypeNames = map[MarkerType]string{
	CutoffPoint:    "cutoff_point",
	ScanFence:      "scan_fence",
	PathfinderGoal: "pathfinder_goal",
}

func (t MarkerType) String() string {
	if name, ok := markerTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("marker_type_%d", int(t))
}

// MarshalText пишет тип по имени, как в файле маркеров
func (t MarkerType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText разбирает имя типа
func (t *MarkerType) UnmarshalText(text []byte) error {
	parsed, err := ParseMarkerType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseMarkerType разбирает имя типа маркера (без учёта регистра)
func ParseMarkerType(s string) (MarkerType, error) {
	lower := strings.ToLower(s)
	for t, name := range markerTypeNames {
		if name == lower {
			return t, nil
		}
	}
	return 0, fmt.Errorf("неизвестный тип маркера %q", s)
}

// Marker аннотированная точка карты
type Marker struct {
	Pos  vec.Vec3   `json:"pos"`
	Type MarkerType `json:"type"`
}

// Matches проверяет совпадение типа и позиции с допуском MarkerHeight по высоте
func (m Marker) Matches(pos vec.Vec3, markerType MarkerType) bool {
	return m.Type == markerType && pos.IsNear(m.Pos, MarkerHeight)
}

// String сериализует маркер: "x y z type"
func (m Marker) String() string {
	return fmt.Sprintf("%d %d %d %s", m.Pos.X, m.Pos.Y, m.Pos.Z, m.Type.String())
}

// ParseMarker разбирает строку, созданную Marker.String
func ParseMarker(line string) (Marker, error) {
	line = strings.TrimRight(line, "\r")
	fields := strings.Split(line, " ")
	if len(fields) != markerFieldCount {
		return Marker{}, &ParseError{Line: line, Reason: fmt.Sprintf("ожидалось %d поля, получено %d", markerFieldCount, len(fields))}
	}

	nums, err := parseInts(line, fields[:3])
	if err != nil {
		return Marker{}, err
	}

	markerType, err := ParseMarkerType(fields[3])
	if err != nil {
		return Marker{}, &ParseError{Line: line, Reason: err.Error()}
	}

	return Marker{
		Pos:  vec.Vec3{X: nums[0], Y: nums[1], Z: nums[2]},
		Type: markerType,
	}, nil
}
