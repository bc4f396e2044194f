package roadmap

import (
	"fmt"
	"strings"

	"github.com/annel0/roadmap/internal/vec"
)

const blockFieldCount = 6

// Block запись о поверхности одной колонны
type Block struct {
	Pos       vec.Vec3 `json:"pos"`
	Clearance int      `json:"clearance"` // расстояние до потолка, 0 — открытое небо или неизвестно
	Name      string   `json:"name"`      // идентификатор материала
	IsRoad    bool     `json:"is_road"`
}

// NewRoadBlock создаёт дорожную запись. Имя без пространства имён дополняется.
func NewRoadBlock(pos vec.Vec3, clearance int, name string) Block {
	return Block{Pos: pos, Clearance: clearance, Name: ExpandName(name), IsRoad: true}
}

// NewTerrainBlock создаёт запись рельефа
func NewTerrainBlock(pos vec.Vec3, clearance int, name string) Block {
	return Block{Pos: pos, Clearance: clearance, Name: ExpandName(name), IsRoad: false}
}

// NewVoidBlock создаёт запись колонны, в которой не найден пол
func NewVoidBlock(pos vec.Vec3) Block {
	return Block{Pos: pos, Name: VoidName}
}

// DetectBlock классифицирует запись по списку дорожных материалов
func DetectBlock(pos vec.Vec3, clearance int, name string, roadBlocks []string) Block {
	name = ExpandName(name)
	isRoad := false
	for _, road := range roadBlocks {
		if ExpandName(road) == name {
			isRoad = true
			break
		}
	}
	return Block{Pos: pos, Clearance: clearance, Name: name, IsRoad: isRoad}
}

// ValidMaterialName проверяет, что имя можно записать в строку файла карты
func ValidMaterialName(name string) bool {
	return name != "" && !strings.ContainsAny(name, " \t\r\n")
}

// IsVoid сообщает, что запись — пустая колонна
func (b Block) IsVoid() bool {
	return b.Name == VoidName
}

// IsTerrain обратная классификация к IsRoad
func (b Block) IsTerrain() bool {
	return !b.IsRoad
}

// String сериализует запись: "x y z clearance name tag"
func (b Block) String() string {
	tag := TerrainTag
	if b.IsRoad {
		tag = RoadTag
	}
	return fmt.Sprintf("%d %d %d %d %s %s", b.Pos.X, b.Pos.Y, b.Pos.Z, b.Clearance, CompressName(b.Name), tag)
}

// ParseBlock разбирает строку, созданную Block.String
func ParseBlock(line string) (Block, error) {
	line = strings.TrimRight(line, "\r")
	fields := strings.Split(line, " ")
	if len(fields) != blockFieldCount {
		return Block{}, &ParseError{Line: line, Reason: fmt.Sprintf("ожидалось %d полей, получено %d", blockFieldCount, len(fields))}
	}

	nums, err := parseInts(line, fields[:4])
	if err != nil {
		return Block{}, err
	}
	if nums[3] < 0 {
		return Block{}, &ParseError{Line: line, Reason: "отрицательный просвет"}
	}
	if fields[4] == "" {
		return Block{}, &ParseError{Line: line, Reason: "пустое имя материала"}
	}

	var isRoad bool
	switch fields[5] {
	case RoadTag:
		isRoad = true
	case TerrainTag:
		isRoad = false
	default:
		return Block{}, &ParseError{Line: line, Reason: fmt.Sprintf("неизвестный тег %q", fields[5])}
	}

	return Block{
		Pos:       vec.Vec3{X: nums[0], Y: nums[1], Z: nums[2]},
		Clearance: nums[3],
		Name:      ExpandName(fields[4]),
		IsRoad:    isRoad,
	}, nil
}
