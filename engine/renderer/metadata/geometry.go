package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

/** @brief Interleaved vertex layout consumed by the mesh pipeline. */
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

var (
	VertexStride         = uint32(unsafe.Sizeof(Vertex{}))
	VertexPositionOffset = uint32(unsafe.Offsetof(Vertex{}.Position))
	VertexColorOffset    = uint32(unsafe.Offsetof(Vertex{}.Color))
	VertexNormalOffset   = uint32(unsafe.Offsetof(Vertex{}.Normal))
	VertexUVOffset       = uint32(unsafe.Offsetof(Vertex{}.UV))
)

/** @brief Uploaded vertex (and optional index) buffers. */
type Geometry interface {
	Bind(buffer CommandBuffer)
	// Draw issues an indexed draw when the geometry has indices, a plain one otherwise.
	Draw(buffer CommandBuffer)
	Destroy()
}
