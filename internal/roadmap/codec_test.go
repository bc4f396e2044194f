package roadmap

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/annel0/roadmap/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlock_Serialization(t *testing.T) {
	t.Run("дорога с пространством имён по умолчанию", func(t *testing.T) {
		b := NewRoadBlock(vec.Vec3{X: 10, Y: 64, Z: -3}, 4, "minecraft:gravel")
		assert.Equal(t, "10 64 -3 4 gravel r", b.String())

		parsed, err := ParseBlock(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	})

	t.Run("чужое пространство имён сохраняется", func(t *testing.T) {
		b := NewTerrainBlock(vec.Vec3{X: 0, Y: 70, Z: 0}, 0, "mod:stone_path")
		assert.Equal(t, "0 70 0 0 mod:stone_path t", b.String())

		parsed, err := ParseBlock(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	})

	t.Run("пустая колонна", func(t *testing.T) {
		b := NewVoidBlock(vec.Vec3{X: 5, Y: 40, Z: 5})
		assert.True(t, b.IsVoid())
		assert.False(t, b.IsRoad)
		assert.Equal(t, "5 40 5 0 _ t", b.String())

		parsed, err := ParseBlock(b.String())
		require.NoError(t, err)
		assert.True(t, parsed.IsVoid())
		assert.Equal(t, b, parsed)
	})

	t.Run("windows перевод строки", func(t *testing.T) {
		parsed, err := ParseBlock("1 2 3 0 dirt_path r\r")
		require.NoError(t, err)
		assert.Equal(t, "minecraft:dirt_path", parsed.Name)
		assert.True(t, parsed.IsRoad)
	})
}

func TestParseBlock_Malformed(t *testing.T) {
	cases := map[string]string{
		"мало полей":            "1 2 3 gravel r",
		"много полей":           "1 2 3 0 gravel r extra",
		"не число":              "1 two 3 0 gravel r",
		"неизвестный тег":       "1 2 3 0 gravel x",
		"отрицательный просвет": "1 2 3 -1 gravel r",
		"пустое имя":            "1 2 3 0  r",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBlock(line)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedLine)
		})
	}
}

func TestDetectBlock(t *testing.T) {
	roads := []string{"minecraft:gravel", "minecraft:dirt_path"}
	assert.True(t, DetectBlock(vec.Vec3{}, 0, "minecraft:gravel", roads).IsRoad)
	assert.False(t, DetectBlock(vec.Vec3{}, 0, "minecraft:grass_block", roads).IsRoad)

	short := DetectBlock(vec.Vec3{}, 0, "gravel", roads)
	assert.True(t, short.IsRoad)
	assert.Equal(t, "minecraft:gravel", short.Name)
}

func TestBlock_RoundTripNames(t *testing.T) {
	pos := vec.Vec3{X: 3, Y: 64, Z: -2}
	blocks := []Block{
		NewRoadBlock(pos, 2, "gravel"),
		NewTerrainBlock(pos, 0, "minecraft:_"),
		NewTerrainBlock(pos, 0, "mod:_"),
		NewVoidBlock(pos),
	}
	for _, b := range blocks {
		t.Run(b.Name, func(t *testing.T) {
			parsed, err := ParseBlock(b.String())
			require.NoError(t, err)
			assert.Equal(t, b, parsed)
		})
	}
	assert.False(t, NewTerrainBlock(pos, 0, "minecraft:_").IsVoid())
}

func TestValidMaterialName(t *testing.T) {
	assert.True(t, ValidMaterialName("minecraft:gravel"))
	assert.False(t, ValidMaterialName(""))
	assert.False(t, ValidMaterialName("bad name"))
}

func TestNameCompression(t *testing.T) {
	assert.Equal(t, "gravel", CompressName("minecraft:gravel"))
	assert.Equal(t, "mod:gravel", CompressName("mod:gravel"))
	assert.Equal(t, "minecraft:_", CompressName("minecraft:_"))
	assert.Equal(t, VoidName, CompressName(VoidName))
	assert.Equal(t, "minecraft:gravel", ExpandName("gravel"))
	assert.Equal(t, "mod:gravel", ExpandName("mod:gravel"))
	assert.Equal(t, VoidName, ExpandName(VoidName))
}

func TestMarker_Serialization(t *testing.T) {
	m := Marker{Pos: vec.Vec3{X: -7, Y: 65, Z: 12}, Type: ScanFence}
	assert.Equal(t, "-7 65 12 scan_fence", m.String())

	parsed, err := ParseMarker(m.String())
	require.NoError(t, err)
	assert.Equal(t, m, parsed)

	parsed, err = ParseMarker("1 2 3 CUTOFF_POINT")
	require.NoError(t, err)
	assert.Equal(t, CutoffPoint, parsed.Type, "тип разбирается без учёта регистра")

	_, err = ParseMarker("1 2 3")
	assert.ErrorIs(t, err, ErrMalformedLine)
	_, err = ParseMarker("1 2 3 teleport")
	assert.ErrorIs(t, err, ErrMalformedLine)
}

func TestMarker_JSON(t *testing.T) {
	data, err := json.Marshal(Marker{Pos: vec.Vec3{X: 1, Y: 2, Z: 3}, Type: PathfinderGoal})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pos":{"x":1,"y":2,"z":3},"type":"pathfinder_goal"}`, string(data))

	var m Marker
	require.NoError(t, json.Unmarshal([]byte(`{"pos":{"x":4,"y":5,"z":6},"type":"SCAN_FENCE"}`), &m))
	assert.Equal(t, ScanFence, m.Type)
	assert.Error(t, json.Unmarshal([]byte(`{"type":"teleport"}`), &m))
}

func TestMarker_Matches(t *testing.T) {
	m := Marker{Pos: vec.Vec3{X: 0, Y: 64, Z: 0}, Type: CutoffPoint}

	assert.True(t, m.Matches(vec.Vec3{X: 0, Y: 64, Z: 0}, CutoffPoint))
	assert.True(t, m.Matches(vec.Vec3{X: 0, Y: 67, Z: 0}, CutoffPoint))
	assert.True(t, m.Matches(vec.Vec3{X: 0, Y: 61, Z: 0}, CutoffPoint))
	assert.False(t, m.Matches(vec.Vec3{X: 0, Y: 68, Z: 0}, CutoffPoint), "вне допуска по высоте")
	assert.False(t, m.Matches(vec.Vec3{X: 1, Y: 64, Z: 0}, CutoffPoint), "другая колонна")
	assert.False(t, m.Matches(vec.Vec3{X: 0, Y: 64, Z: 0}, ScanFence), "другой тип")
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "chunk_-1_2.txt", ChunkFilename(vec.Vec2{X: -1, Y: 2}))
	assert.Equal(t, "markers.txt", MarkersFilename())

	coords, ok := ParseChunkFilename("chunk_-12_7.txt")
	require.True(t, ok)
	assert.Equal(t, vec.Vec2{X: -12, Y: 7}, coords)

	_, ok = ParseChunkFilename("chunk_1.txt")
	assert.False(t, ok)

	assert.True(t, IsRoadmapFilename("markers.txt"))
	assert.True(t, IsRoadmapFilename("chunk_0_-3.txt"))
	assert.False(t, IsRoadmapFilename("notes.txt"))
	assert.False(t, IsRoadmapFilename("chunk_0_0.txt.bak"))
}

func TestChunk_ParseRoundTrip(t *testing.T) {
	chunk := NewChunk(vec.Vec2{X: -1, Y: 0})
	chunk.SetBlock(NewRoadBlock(vec.Vec3{X: -1, Y: 64, Z: 0}, 3, "minecraft:gravel"))
	chunk.SetBlock(NewTerrainBlock(vec.Vec3{X: -16, Y: 63, Z: 15}, 0, "minecraft:grass_block"))
	chunk.SetBlock(NewVoidBlock(vec.Vec3{X: -8, Y: 50, Z: 4}))

	parsed, err := ParseChunk(chunk.String())
	require.NoError(t, err)
	assert.True(t, chunk.Equal(parsed))
	assert.Equal(t, chunk.String(), parsed.String(), "сериализация детерминирована")
}

func TestParseChunk_Errors(t *testing.T) {
	_, err := ParseChunk("")
	assert.ErrorIs(t, err, ErrMalformedLine)

	_, err = ParseChunk("0 64 0 0 gravel r\n16 64 0 0 gravel r")
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.LineNo)

	_, err = ParseChunk("0 64 0 0 gravel r\nbroken")
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.LineNo)
	assert.Equal(t, "broken", pe.Line)
}

func TestMarkers_EncodeDecode(t *testing.T) {
	markers := []Marker{
		{Pos: vec.Vec3{X: 1, Y: 2, Z: 3}, Type: CutoffPoint},
		{Pos: vec.Vec3{X: -4, Y: 5, Z: -6}, Type: PathfinderGoal},
	}
	decoded, err := DecodeMarkers(EncodeMarkers(markers) + "\n")
	require.NoError(t, err)
	assert.Equal(t, markers, decoded)

	empty, err := DecodeMarkers("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
