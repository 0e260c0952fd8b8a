package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/resources"
)

type ID uint32

// noCopy trips go vet's copylocks check when a GameObject is copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

type PointLightComponent struct {
	LightIntensity float32
}

/**
 * @brief An entity of the scene. Its id is assigned once by a Factory and never
 * reused. Objects are handled through pointers; copying one would duplicate
 * its identity.
 */
type GameObject struct {
	_ noCopy

	id        ID
	Transform math.Transform
	Color     mgl32.Vec3

	/** @brief Optional shared geometry. nil means nothing to draw. */
	Model *resources.Model
	/** @brief Optional. Objects with a point light are drawn as billboards. */
	PointLight *PointLightComponent
}

func (o *GameObject) ID() ID {
	return o.id
}

// SetModel replaces the model, releasing the previous one. The object takes over
// the caller's reference.
func (o *GameObject) SetModel(model *resources.Model) {
	if o.Model != nil && o.Model != model {
		o.Model.Release()
	}
	o.Model = model
}

// Factory hands out game objects with strictly increasing ids.
type Factory struct {
	ids core.IdentifierFactory
}

func NewFactory() *Factory {
	return &Factory{}
}

// CreateObject returns an object at the origin with unit scale.
func (f *Factory) CreateObject() *GameObject {
	return &GameObject{
		id:        ID(f.ids.Next()),
		Transform: math.NewTransform(),
	}
}

// CreatePointLight returns a light object. The billboard radius is stored in Scale.X.
func (f *Factory) CreatePointLight(intensity, radius float32, color mgl32.Vec3) *GameObject {
	o := f.CreateObject()
	o.Color = color
	o.Transform.Scale[0] = radius
	o.PointLight = &PointLightComponent{LightIntensity: intensity}
	return o
}
