package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/lumen/engine/renderer/rendertest"
)

func TestModelLastReleaseDestroysGeometry(t *testing.T) {
	geometry := &rendertest.Geometry{VertexCount: 3}
	m := NewModel("triangle", geometry)
	assert.EqualValues(t, 1, m.RefCount())

	m.Acquire()
	assert.False(t, m.Release())
	assert.False(t, geometry.Destroyed)
	assert.True(t, m.Release())
	assert.True(t, geometry.Destroyed)
	assert.False(t, m.Release())
}

func TestModelDrawDelegatesToGeometry(t *testing.T) {
	geometry := &rendertest.Geometry{VertexCount: 4, IndexCount: 6}
	m := NewModel("quad", geometry)
	cb := &rendertest.CommandBuffer{}
	m.Bind(cb)
	m.Draw(cb)
	assert.Equal(t, []string{"BindGeometry", "DrawIndexed"}, cb.Names())
}
