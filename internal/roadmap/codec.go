package roadmap

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/annel0/roadmap/internal/vec"
)

const (
	// FileExtension расширение файлов карты
	FileExtension = "txt"
	// DefaultNamespace пространство имён, которое не пишется в файлы
	DefaultNamespace = "minecraft:"
	// VoidName материал пустой колонны
	VoidName = "_"

	RoadTag    = "r"
	TerrainTag = "t"
)

var (
	markersFilenameRegex = regexp.MustCompile(`^markers\.txt$`)
	chunkFilenameRegex   = regexp.MustCompile(`^chunk_(-?\d+)_(-?\d+)\.txt$`)
	roadmapFilenameRegex = regexp.MustCompile(`^(markers|chunk_(-?\d+)_(-?\d+))\.txt$`)
)

// ErrMalformedLine базовая ошибка разбора строки файла карты
var ErrMalformedLine = errors.New("roadmap: некорректная строка")

// ParseError описывает строку, которую не удалось разобрать
type ParseError struct {
	File   string
	LineNo int
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s: %q", e.File, e.LineNo, e.Reason, e.Line)
	}
	return fmt.Sprintf("строка %d: %s: %q", e.LineNo, e.Reason, e.Line)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedLine
}

// ChunkFilename возвращает имя файла чанка
func ChunkFilename(pos vec.Vec2) string {
	return fmt.Sprintf("chunk_%d_%d.%s", pos.X, pos.Y, FileExtension)
}

// MarkersFilename возвращает имя файла маркеров
func MarkersFilename() string {
	return "markers." + FileExtension
}

// ParseChunkFilename извлекает координаты чанка из имени файла
func ParseChunkFilename(name string) (vec.Vec2, bool) {
	m := chunkFilenameRegex.FindStringSubmatch(name)
	if m == nil {
		return vec.Vec2{}, false
	}
	x, errX := strconv.Atoi(m[1])
	z, errZ := strconv.Atoi(m[2])
	if errX != nil || errZ != nil {
		return vec.Vec2{}, false
	}
	return vec.Vec2{X: x, Y: z}, true
}

// IsMarkersFilename проверяет имя файла маркеров
func IsMarkersFilename(name string) bool {
	return markersFilenameRegex.MatchString(name)
}

// IsRoadmapFilename проверяет, принадлежит ли файл карте
func IsRoadmapFilename(name string) bool {
	return roadmapFilenameRegex.MatchString(name)
}

// CompressName убирает пространство имён по умолчанию.
// "minecraft:_" пишется целиком, иначе его не отличить от пустой колонны.
func CompressName(name string) string {
	short := strings.TrimPrefix(name, DefaultNamespace)
	if short == VoidName && name != VoidName {
		return name
	}
	return short
}

// ExpandName добавляет пространство имён по умолчанию
func ExpandName(name string) string {
	if strings.Contains(name, ":") || name == VoidName {
		return name
	}
	return DefaultNamespace + name
}

// splitLines делит содержимое файла на строки, пропуская пустые в конце
func splitLines(data string) []string {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	lines := strings.Split(data, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// EncodeMarkers сериализует маркеры, по одному на строку
func EncodeMarkers(markers []Marker) string {
	var sb strings.Builder
	for i, m := range markers {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.String())
	}
	return sb.String()
}

// DecodeMarkers разбирает файл маркеров
func DecodeMarkers(data string) ([]Marker, error) {
	lines := splitLines(data)
	markers := make([]Marker, 0, len(lines))
	for i, line := range lines {
		m, err := ParseMarker(line)
		if err != nil {
			return nil, withLineNo(err, i+1)
		}
		markers = append(markers, m)
	}
	return markers, nil
}

func withLineNo(err error, lineNo int) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.LineNo = lineNo
		return pe
	}
	return err
}

func withFile(err error, file string) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.File = file
		return pe
	}
	return fmt.Errorf("%s: %w", file, err)
}

func parseInts(line string, fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("поле %d не целое число", i+1)}
		}
		out[i] = v
	}
	return out, nil
}
