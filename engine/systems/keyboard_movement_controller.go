package systems

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/scene"
)

type KeyMappings struct {
	MoveLeft     core.KeyCode
	MoveRight    core.KeyCode
	MoveForward  core.KeyCode
	MoveBackward core.KeyCode
	MoveUp       core.KeyCode
	MoveDown     core.KeyCode
	LookLeft     core.KeyCode
	LookRight    core.KeyCode
	LookUp       core.KeyCode
	LookDown     core.KeyCode
}

func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		MoveLeft:     core.KEY_A,
		MoveRight:    core.KEY_D,
		MoveForward:  core.KEY_W,
		MoveBackward: core.KEY_S,
		MoveUp:       core.KEY_E,
		MoveDown:     core.KEY_Q,
		LookLeft:     core.KEY_LEFT,
		LookRight:    core.KEY_RIGHT,
		LookUp:       core.KEY_UP,
		LookDown:     core.KEY_DOWN,
	}
}

// KeyboardMovementController flies a game object on the XZ plane.
type KeyboardMovementController struct {
	Keys      KeyMappings
	MoveSpeed float32
	LookSpeed float32
}

func NewKeyboardMovementController(moveSpeed, lookSpeed float32) *KeyboardMovementController {
	return &KeyboardMovementController{
		Keys:      DefaultKeyMappings(),
		MoveSpeed: moveSpeed,
		LookSpeed: lookSpeed,
	}
}

const maxPitch float32 = 1.5

func (c *KeyboardMovementController) MoveInPlaneXZ(keys core.KeyState, dt float32, obj *scene.GameObject) {
	var rotate mgl32.Vec3
	if keys.IsKeyDown(c.Keys.LookRight) {
		rotate[1] += 1
	}
	if keys.IsKeyDown(c.Keys.LookLeft) {
		rotate[1] -= 1
	}
	if keys.IsKeyDown(c.Keys.LookUp) {
		rotate[0] += 1
	}
	if keys.IsKeyDown(c.Keys.LookDown) {
		rotate[0] -= 1
	}
	if rotate.Dot(rotate) > math.K_FLOAT_EPSILON {
		obj.Transform.Rotation = obj.Transform.Rotation.Add(rotate.Normalize().Mul(c.LookSpeed * dt))
	}

	obj.Transform.Rotation[0] = math.Clamp(obj.Transform.Rotation[0], -maxPitch, maxPitch)
	obj.Transform.Rotation[1] = math.Wrap(obj.Transform.Rotation[1], math.K_PI_2)

	yaw := obj.Transform.Rotation[1]
	forward := mgl32.Vec3{math.Sin(yaw), 0, math.Cos(yaw)}
	right := mgl32.Vec3{forward[2], 0, -forward[0]}
	up := mgl32.Vec3{0, -1, 0}

	var move mgl32.Vec3
	if keys.IsKeyDown(c.Keys.MoveForward) {
		move = move.Add(forward)
	}
	if keys.IsKeyDown(c.Keys.MoveBackward) {
		move = move.Sub(forward)
	}
	if keys.IsKeyDown(c.Keys.MoveRight) {
		move = move.Add(right)
	}
	if keys.IsKeyDown(c.Keys.MoveLeft) {
		move = move.Sub(right)
	}
	if keys.IsKeyDown(c.Keys.MoveUp) {
		move = move.Add(up)
	}
	if keys.IsKeyDown(c.Keys.MoveDown) {
		move = move.Sub(up)
	}
	if move.Dot(move) > math.K_FLOAT_EPSILON {
		obj.Transform.Translation = obj.Transform.Translation.Add(move.Normalize().Mul(c.MoveSpeed * dt))
	}
}
