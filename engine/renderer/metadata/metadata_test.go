package metadata

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtent(t *testing.T) {
	assert.True(t, Extent{}.IsZero())
	assert.True(t, Extent{Width: 800}.IsZero())
	assert.False(t, Extent{Width: 800, Height: 600}.IsZero())
	assert.InDelta(t, 4.0/3.0, Extent{Width: 800, Height: 600}.AspectRatio(), 1e-6)
	assert.Zero(t, Extent{Width: 800}.AspectRatio())
}

func TestGlobalUboLayout(t *testing.T) {
	assert.EqualValues(t, 480, GlobalUboSize)

	ubo := NewGlobalUbo()
	ubo.PointLights[9] = PointLight{
		Position: mgl32.Vec4{1, 2, 3, 0},
		Color:    mgl32.Vec4{0.5, 0.25, 1, 10},
	}
	ubo.NumLights = 7
	data := ubo.Bytes()
	require.Len(t, data, 480)

	f32 := func(offset int) float32 {
		return math.Float32frombits(binary.NativeEndian.Uint32(data[offset:]))
	}
	// identity projection
	assert.Equal(t, float32(1), f32(0))
	assert.Equal(t, float32(0), f32(4))
	// ambient at 128
	assert.Equal(t, float32(0.02), f32(140))
	// light 9 at 144 + 9*32
	assert.Equal(t, float32(2), f32(144+9*32+4))
	assert.Equal(t, float32(10), f32(144+9*32+28))
	assert.EqualValues(t, 7, int32(binary.NativeEndian.Uint32(data[464:])))
}

func TestPushConstantSizes(t *testing.T) {
	assert.EqualValues(t, 128, MeshPushConstantsSize)
	assert.EqualValues(t, 36, PointLightPushConstantsSize)

	p := PointLightPushConstants{Radius: 0.1}
	data := p.Bytes()
	require.Len(t, data, 36)
	assert.Equal(t, float32(0.1), math.Float32frombits(binary.NativeEndian.Uint32(data[32:])))

	m := MeshPushConstants{ModelMatrix: mgl32.Translate3D(1, 2, 3), NormalMatrix: mgl32.Ident4()}
	data = m.Bytes()
	require.Len(t, data, 128)
	assert.Equal(t, float32(3), math.Float32frombits(binary.NativeEndian.Uint32(data[14*4:])))
}

func TestPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig("mesh", "a.vert.spv", "a.frag.spv")
	assert.True(t, cfg.DepthTest)
	assert.False(t, cfg.AlphaBlending)
	assert.True(t, cfg.EnableAlphaBlending().AlphaBlending)
}

func TestGetAligned(t *testing.T) {
	assert.EqualValues(t, 256, GetAligned(200, 256))
	assert.EqualValues(t, 256, GetAligned(256, 256))
	assert.EqualValues(t, 13, GetAligned(13, 0))
	r := GetAlignedRange(1, 65, 64)
	assert.EqualValues(t, 64, r.Offset)
	assert.EqualValues(t, 128, r.Size)
}
