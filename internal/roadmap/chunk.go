package roadmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/annel0/roadmap/internal/vec"
)

// Chunk представляет участок карты 16x16 колонн
type Chunk struct {
	Coords vec.Vec2 // Координаты чанка
	blocks map[vec.Vec3]Block
}

// NewChunk создаёт пустой чанк с указанными координатами
func NewChunk(coords vec.Vec2) *Chunk {
	return &Chunk{
		Coords: coords,
		blocks: make(map[vec.Vec3]Block),
	}
}

// GetBlock возвращает запись по точной позиции
func (c *Chunk) GetBlock(pos vec.Vec3) (Block, bool) {
	b, ok := c.blocks[pos]
	return b, ok
}

// SetBlock добавляет или заменяет запись
func (c *Chunk) SetBlock(b Block) {
	c.blocks[b.Pos] = b
}

// AddBlock добавляет запись, если позиция свободна
func (c *Chunk) AddBlock(b Block) bool {
	if c.ContainsBlock(b.Pos) {
		return false
	}
	c.SetBlock(b)
	return true
}

// ReplaceBlock заменяет существующую запись
func (c *Chunk) ReplaceBlock(b Block) bool {
	if !c.ContainsBlock(b.Pos) {
		return false
	}
	c.SetBlock(b)
	return true
}

// RemoveBlock удаляет запись
func (c *Chunk) RemoveBlock(pos vec.Vec3) bool {
	if !c.ContainsBlock(pos) {
		return false
	}
	delete(c.blocks, pos)
	return true
}

// ClearBlocks удаляет все записи
func (c *Chunk) ClearBlocks() bool {
	if len(c.blocks) == 0 {
		return false
	}
	c.blocks = make(map[vec.Vec3]Block)
	return true
}

// ContainsBlock проверяет наличие записи по точной позиции
func (c *Chunk) ContainsBlock(pos vec.Vec3) bool {
	_, ok := c.blocks[pos]
	return ok
}

// BlockCount возвращает число записей
func (c *Chunk) BlockCount() int {
	return len(c.blocks)
}

// IsEmpty сообщает, что в чанке нет записей
func (c *Chunk) IsEmpty() bool {
	return len(c.blocks) == 0
}

// Blocks возвращает записи в детерминированном порядке (y, z, x)
func (c *Chunk) Blocks() []Block {
	result := make([]Block, 0, len(c.blocks))
	for _, b := range c.blocks {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Pos, result[j].Pos
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	return result
}

// Clone возвращает независимую копию чанка
func (c *Chunk) Clone() *Chunk {
	clone := &Chunk{
		Coords: c.Coords,
		blocks: make(map[vec.Vec3]Block, len(c.blocks)),
	}
	for pos, b := range c.blocks {
		clone.blocks[pos] = b
	}
	return clone
}

// Equal сравнивает содержимое двух чанков
func (c *Chunk) Equal(other *Chunk) bool {
	if c.Coords != other.Coords || len(c.blocks) != len(other.blocks) {
		return false
	}
	for pos, b := range c.blocks {
		if ob, ok := other.blocks[pos]; !ok || ob != b {
			return false
		}
	}
	return true
}

// String сериализует чанк: по одной записи на строку
func (c *Chunk) String() string {
	blocks := c.Blocks()
	lines := make([]string, len(blocks))
	for i, b := range blocks {
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// ParseChunk разбирает содержимое файла чанка.
// Координаты чанка определяются по первой записи; все записи должны им принадлежать.
func ParseChunk(data string) (*Chunk, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, &ParseError{LineNo: 1, Reason: "пустой чанк"}
	}

	var chunk *Chunk
	for i, line := range lines {
		b, err := ParseBlock(line)
		if err != nil {
			return nil, withLineNo(err, i+1)
		}
		if chunk == nil {
			chunk = NewChunk(b.Pos.ToChunkCoords())
		}
		if b.Pos.ToChunkCoords() != chunk.Coords {
			return nil, &ParseError{
				LineNo: i + 1,
				Line:   line,
				Reason: fmt.Sprintf("позиция вне чанка %d,%d", chunk.Coords.X, chunk.Coords.Y),
			}
		}
		chunk.SetBlock(b)
	}
	return chunk, nil
}
