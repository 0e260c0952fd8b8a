package metadata

import (
	"bytes"
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
)

/** @brief Capacity of the point light array in the global uniform block. Must match the shaders. */
const MAX_LIGHTS = 10

/** @brief Number of frames the CPU may record ahead of the GPU. */
const MAX_FRAMES_IN_FLIGHT = 2

type PointLight struct {
	Position mgl32.Vec4 // w ignored
	Color    mgl32.Vec4 // w is intensity
}

/** @brief Shared per-frame uniform data, one copy per frame slot. */
type GlobalUbo struct {
	Projection        mgl32.Mat4
	View              mgl32.Mat4
	AmbientLightColor mgl32.Vec4 // w is intensity
	PointLights       [MAX_LIGHTS]PointLight
	NumLights         int32
}

// NewGlobalUbo returns identity matrices and a faint white ambient light.
func NewGlobalUbo() GlobalUbo {
	return GlobalUbo{
		Projection:        mgl32.Ident4(),
		View:              mgl32.Ident4(),
		AmbientLightColor: mgl32.Vec4{1, 1, 1, 0.02},
	}
}

// std140 image of GlobalUbo.
type globalUboLayout struct {
	Projection        [16]float32
	View              [16]float32
	AmbientLightColor [4]float32
	PointLights       [MAX_LIGHTS][8]float32
	NumLights         int32
	_                 [3]int32
}

var GlobalUboSize = uint64(binary.Size(globalUboLayout{}))

// Bytes encodes the block in std140 layout using host byte order.
func (u *GlobalUbo) Bytes() []byte {
	layout := globalUboLayout{
		Projection:        u.Projection,
		View:              u.View,
		AmbientLightColor: u.AmbientLightColor,
		NumLights:         u.NumLights,
	}
	for i, l := range u.PointLights {
		copy(layout.PointLights[i][0:4], l.Position[:])
		copy(layout.PointLights[i][4:8], l.Color[:])
	}
	return encode(&layout, int(GlobalUboSize))
}

/** @brief Per-object payload of the mesh pipeline. */
type MeshPushConstants struct {
	ModelMatrix  mgl32.Mat4
	NormalMatrix mgl32.Mat4
}

var MeshPushConstantsSize = uint32(binary.Size(MeshPushConstants{}))

func (p *MeshPushConstants) Bytes() []byte {
	return encode(p, int(MeshPushConstantsSize))
}

/** @brief Per-light payload of the point light billboard pipeline. */
type PointLightPushConstants struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
	Radius   float32
}

var PointLightPushConstantsSize = uint32(binary.Size(PointLightPushConstants{}))

func (p *PointLightPushConstants) Bytes() []byte {
	return encode(p, int(PointLightPushConstantsSize))
}

func encode(v interface{}, size int) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	// Writes into a bytes.Buffer of fixed-size data cannot fail.
	_ = binary.Write(buf, binary.NativeEndian, v)
	return buf.Bytes()
}
