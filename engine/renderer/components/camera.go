package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
)

/**
 * @brief Represents the viewer. Holds a projection and a view matrix
 * together with the inverse view, whose last column is the camera position.
 * Clip space follows Vulkan: Y points down and depth goes from zero to one.
 */
type Camera struct {
	projectionMatrix  mgl32.Mat4
	viewMatrix        mgl32.Mat4
	inverseViewMatrix mgl32.Mat4
}

/** @brief The up vector used when none is given. Y is down in Vulkan clip space. */
var DefaultUp = mgl32.Vec3{0, -1, 0}

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.projectionMatrix = mgl32.Ident4()
	c.viewMatrix = mgl32.Ident4()
	c.inverseViewMatrix = mgl32.Ident4()
}

func (c *Camera) SetOrthographicProjection(left, right, top, bottom, near, far float32) {
	p := mgl32.Ident4()
	p.Set(0, 0, 2.0/(right-left))
	p.Set(1, 1, 2.0/(bottom-top))
	p.Set(2, 2, 1.0/(far-near))
	p.Set(0, 3, -(right+left)/(right-left))
	p.Set(1, 3, -(bottom+top)/(bottom-top))
	p.Set(2, 3, -near/(far-near))
	c.projectionMatrix = p
}

// SetPerspectiveProjection takes the vertical field of view in radians.
func (c *Camera) SetPerspectiveProjection(fovy, aspect, near, far float32) error {
	if math.Abs(aspect) <= math.K_FLOAT_EPSILON {
		return core.Precondition("perspective projection requires a non-zero aspect ratio")
	}
	tanHalfFovy := math.Tan(fovy / 2.0)
	p := mgl32.Mat4{}
	p.Set(0, 0, 1.0/(aspect*tanHalfFovy))
	p.Set(1, 1, 1.0/tanHalfFovy)
	p.Set(2, 2, far/(far-near))
	p.Set(3, 2, 1.0)
	p.Set(2, 3, -(far*near)/(far-near))
	c.projectionMatrix = p
	return nil
}

// SetViewDirection looks from position along direction. direction must not be zero
// nor parallel to up.
func (c *Camera) SetViewDirection(position, direction, up mgl32.Vec3) {
	w := direction.Normalize()
	u := w.Cross(up).Normalize()
	v := w.Cross(u)
	c.setView(position, u, v, w)
}

func (c *Camera) SetViewTarget(position, target, up mgl32.Vec3) {
	c.SetViewDirection(position, target.Sub(position), up)
}

// SetViewYXZ builds the view from Euler angles applied yaw, then pitch, then roll.
// rotation holds (pitch, yaw, roll).
func (c *Camera) SetViewYXZ(position, rotation mgl32.Vec3) {
	c3 := math.Cos(rotation.Z())
	s3 := math.Sin(rotation.Z())
	c2 := math.Cos(rotation.X())
	s2 := math.Sin(rotation.X())
	c1 := math.Cos(rotation.Y())
	s1 := math.Sin(rotation.Y())
	u := mgl32.Vec3{c1*c3 + s1*s2*s3, c2 * s3, c1*s2*s3 - c3*s1}
	v := mgl32.Vec3{c3*s1*s2 - c1*s3, c2 * c3, c1*c3*s2 + s1*s3}
	w := mgl32.Vec3{c2 * s1, -s2, c1 * c2}
	c.setView(position, u, v, w)
}

// setView writes the orthonormal basis (u, v, w) as rows of the view matrix and as
// columns of its inverse.
func (c *Camera) setView(position, u, v, w mgl32.Vec3) {
	view := mgl32.Ident4()
	inverse := mgl32.Ident4()
	for i, axis := range [3]mgl32.Vec3{u, v, w} {
		for j := 0; j < 3; j++ {
			view.Set(i, j, axis[j])
			inverse.Set(j, i, axis[j])
		}
		view.Set(i, 3, -axis.Dot(position))
		inverse.Set(i, 3, position[i])
	}
	c.viewMatrix = view
	c.inverseViewMatrix = inverse
}

func (c *Camera) Projection() mgl32.Mat4 {
	return c.projectionMatrix
}

func (c *Camera) View() mgl32.Mat4 {
	return c.viewMatrix
}

func (c *Camera) InverseView() mgl32.Mat4 {
	return c.inverseViewMatrix
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.inverseViewMatrix.Col(3).Vec3()
}
