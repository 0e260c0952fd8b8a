package math

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a translation, a non-uniform scale and a Tait-Bryan rotation in
// radians, where Rotation.Y is yaw, Rotation.X is pitch and Rotation.Z is roll.
type Transform struct {
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Rotation    mgl32.Vec3
}

// NewTransform returns the identity transform: no translation or rotation, unit scale.
func NewTransform() Transform {
	return Transform{
		Scale: mgl32.Vec3{1, 1, 1},
	}
}

// Mat4 composes Translate * Ry * Rx * Rz * Scale.
// Rotations are applied to a vector in Z, X, Y order.
func (t *Transform) Mat4() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z()).
		Mul4(t.rotation()).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// NormalMatrix is the inverse transpose of the upper 3x3 of Mat4, widened to
// a Mat4 for push constant alignment. A zero scale component yields a zero matrix.
func (t *Transform) NormalMatrix() mgl32.Mat4 {
	s := t.Scale
	if s.X() == 0 || s.Y() == 0 || s.Z() == 0 {
		return mgl32.Mat4{}
	}
	inv := mgl32.Scale3D(1/s.X(), 1/s.Y(), 1/s.Z())
	// (R*S)^-T = R * S^-1 for an orthonormal R.
	n := t.rotation().Mul4(inv).Mat3()
	return n.Mat4()
}

func (t *Transform) rotation() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(t.Rotation.Y()).
		Mul4(mgl32.HomogRotate3DX(t.Rotation.X())).
		Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z()))
}
