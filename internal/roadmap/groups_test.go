package roadmap

import (
	"testing"

	"github.com/annel0/roadmap/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestPosGroupCollection(t *testing.T) {
	c := NewPosGroupCollection(5)
	c.AddPos(vec.Vec3{X: 0, Y: 0, Z: 0})
	c.AddPos(vec.Vec3{X: 3, Y: 0, Z: 0})
	c.AddPos(vec.Vec3{X: 20, Y: 0, Z: 0})

	assert.Len(t, c.Groups(), 2)
	assert.Equal(t, 3, c.PosCount())
	assert.Equal(t, []vec.Vec3{{X: 2, Y: 0, Z: 0}, {X: 20, Y: 0, Z: 0}}, c.Centers())

	assert.True(t, c.RemovePos(vec.Vec3{X: 20, Y: 0, Z: 0}))
	assert.False(t, c.RemovePos(vec.Vec3{X: 20, Y: 0, Z: 0}))
	c.RemoveEmptyGroups()
	assert.Len(t, c.Groups(), 1)
	assert.Equal(t, vec.Vec3{X: 2, Y: 0, Z: 0}, c.Centers()[0])

	c.RemovePos(vec.Vec3{X: 0, Y: 0, Z: 0})
	assert.Equal(t, vec.Vec3{X: 3, Y: 0, Z: 0}, c.Centers()[0], "центр пересчитывается")
}
