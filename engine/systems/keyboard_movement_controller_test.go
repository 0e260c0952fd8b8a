package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/scene"
)

type pressed map[core.KeyCode]bool

func (p pressed) IsKeyDown(key core.KeyCode) bool {
	return p[key]
}

func TestMoveForwardFollowsYaw(t *testing.T) {
	c := NewKeyboardMovementController(3, 1.5)
	obj := scene.NewFactory().CreateObject()

	c.MoveInPlaneXZ(pressed{core.KEY_W: true}, 1, obj)
	assert.True(t, obj.Transform.Translation.ApproxEqualThreshold(mgl32.Vec3{0, 0, 3}, 1e-6))

	obj.Transform.Translation = mgl32.Vec3{}
	obj.Transform.Rotation[1] = math.K_HALF_PI
	c.MoveInPlaneXZ(pressed{core.KEY_W: true}, 1, obj)
	assert.True(t, obj.Transform.Translation.ApproxEqualThreshold(mgl32.Vec3{3, 0, 0}, 1e-5))
}

func TestDiagonalMoveIsNormalized(t *testing.T) {
	c := NewKeyboardMovementController(3, 1.5)
	obj := scene.NewFactory().CreateObject()
	c.MoveInPlaneXZ(pressed{core.KEY_W: true, core.KEY_D: true}, 1, obj)
	assert.InDelta(t, 3, obj.Transform.Translation.Len(), 1e-5)
}

func TestUpIsNegativeY(t *testing.T) {
	c := NewKeyboardMovementController(3, 1.5)
	obj := scene.NewFactory().CreateObject()
	c.MoveInPlaneXZ(pressed{core.KEY_E: true}, 0.5, obj)
	assert.True(t, obj.Transform.Translation.ApproxEqualThreshold(mgl32.Vec3{0, -1.5, 0}, 1e-6))
}

func TestOpposingKeysCancel(t *testing.T) {
	c := NewKeyboardMovementController(3, 1.5)
	obj := scene.NewFactory().CreateObject()
	c.MoveInPlaneXZ(pressed{core.KEY_W: true, core.KEY_S: true, core.KEY_LEFT: true, core.KEY_RIGHT: true}, 1, obj)
	assert.Equal(t, mgl32.Vec3{}, obj.Transform.Translation)
	assert.Equal(t, mgl32.Vec3{}, obj.Transform.Rotation)
}

func TestPitchIsClampedAndYawWrapped(t *testing.T) {
	c := NewKeyboardMovementController(3, 1.5)
	obj := scene.NewFactory().CreateObject()
	c.MoveInPlaneXZ(pressed{core.KEY_UP: true}, 10, obj)
	assert.Equal(t, float32(1.5), obj.Transform.Rotation.X())

	c.MoveInPlaneXZ(pressed{core.KEY_LEFT: true}, 1, obj)
	assert.InDelta(t, math.K_PI_2-1.5, obj.Transform.Rotation.Y(), 1e-5)
	assert.GreaterOrEqual(t, obj.Transform.Rotation.Y(), float32(0))
}
