package resources

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief Uploaded geometry shared between game objects. The model starts with
 * one reference owned by its creator; every additional holder calls Acquire and
 * every holder calls Release exactly once. The last Release destroys the GPU buffers.
 */
type Model struct {
	ID   uuid.UUID
	Name string

	geometry metadata.Geometry
	refs     atomic.Int32
}

func NewModel(name string, geometry metadata.Geometry) *Model {
	m := &Model{
		ID:       uuid.New(),
		Name:     name,
		geometry: geometry,
	}
	m.refs.Store(1)
	return m
}

// Acquire adds a holder and returns the model for chaining.
func (m *Model) Acquire() *Model {
	m.refs.Add(1)
	return m
}

// Release drops a holder. It reports true when the geometry was destroyed.
func (m *Model) Release() bool {
	refs := m.refs.Add(-1)
	switch {
	case refs > 0:
		return false
	case refs < 0:
		core.LogWarn("model '%s' (%s) released more times than acquired", m.Name, m.ID)
		return false
	}
	core.LogDebug("destroying model '%s' (%s)", m.Name, m.ID)
	if m.geometry != nil {
		m.geometry.Destroy()
		m.geometry = nil
	}
	return true
}

func (m *Model) RefCount() int32 {
	return m.refs.Load()
}

func (m *Model) Bind(buffer metadata.CommandBuffer) {
	m.geometry.Bind(buffer)
}

func (m *Model) Draw(buffer metadata.CommandBuffer) {
	m.geometry.Draw(buffer)
}
