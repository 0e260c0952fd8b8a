package systems

import (
	"cmp"
	"path/filepath"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/scene"
)

// Axis the lights orbit around. Y is down.
var LightOrbitAxis = mgl32.Vec3{0, -1, 0}

// PointLightSystem animates the point lights, copies them into the global
// uniform block and draws each as a camera-facing billboard.
type PointLightSystem struct {
	device       metadata.Device
	pipeline     metadata.Pipeline
	rotationRate float32
}

func NewPointLightSystem(device metadata.Device, target metadata.Swapchain, shadersDir string, rotationRate float32) (*PointLightSystem, error) {
	config := metadata.DefaultPipelineConfig(
		"point_light",
		filepath.Join(shadersDir, "point_light.vert.spv"),
		filepath.Join(shadersDir, "point_light.frag.spv"),
	).EnableAlphaBlending()
	// the vertex shader generates the quad corners
	config.UseVertexInput = false
	config.PushConstantSize = metadata.PointLightPushConstantsSize
	config.PushConstantStages = metadata.ShaderStageVertex | metadata.ShaderStageFragment

	pipeline, err := device.CreatePipeline(config, target)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create point light pipeline")
	}
	return &PointLightSystem{
		device:       device,
		pipeline:     pipeline,
		rotationRate: rotationRate,
	}, nil
}

// SetRotationRate sets the orbit speed in radians per second.
func (s *PointLightSystem) SetRotationRate(rate float32) {
	s.rotationRate = rate
}

func (s *PointLightSystem) RotationRate() float32 {
	return s.rotationRate
}

// Animate rotates every light around LightOrbitAxis by rate * frame time.
func (s *PointLightSystem) Animate(frame *renderer.FrameInfo) {
	if s.rotationRate == 0 {
		return
	}
	rotation := mgl32.HomogRotate3D(s.rotationRate*frame.FrameTime, LightOrbitAxis)
	frame.GameObjects.Each(func(obj *scene.GameObject) {
		if obj.PointLight == nil {
			return
		}
		obj.Transform.Translation = rotation.Mul4x1(obj.Transform.Translation.Vec4(1)).Vec3()
	})
}

// Update overwrites the light array of ubo with the scene's lights in id order.
// More lights than MAX_LIGHTS is a precondition failure marked with
// ErrLightCapacityExceeded; ubo is left untouched in that case.
func (s *PointLightSystem) Update(frame *renderer.FrameInfo, ubo *metadata.GlobalUbo) error {
	lights := frame.GameObjects.PointLights()
	if len(lights) > metadata.MAX_LIGHTS {
		return errors.Mark(
			core.Precondition("%d point lights exceed the capacity of %d", len(lights), metadata.MAX_LIGHTS),
			core.ErrLightCapacityExceeded,
		)
	}
	for i, obj := range lights {
		ubo.PointLights[i] = metadata.PointLight{
			Position: obj.Transform.Translation.Vec4(1),
			Color:    obj.Color.Vec4(obj.PointLight.LightIntensity),
		}
	}
	for i := len(lights); i < metadata.MAX_LIGHTS; i++ {
		ubo.PointLights[i] = metadata.PointLight{}
	}
	ubo.NumLights = int32(len(lights))
	return nil
}

// Render draws the billboards farthest first so blending composes correctly.
func (s *PointLightSystem) Render(frame *renderer.FrameInfo) {
	lights := frame.GameObjects.PointLights()
	if len(lights) == 0 {
		return
	}
	eye := frame.Camera.Position()
	distance := func(obj *scene.GameObject) float32 {
		d := eye.Sub(obj.Transform.Translation)
		return d.Dot(d)
	}
	slices.SortStableFunc(lights, func(a, b *scene.GameObject) int {
		if c := cmp.Compare(distance(b), distance(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})

	cb := frame.CommandBuffer
	cb.BindPipeline(s.pipeline)
	cb.BindDescriptorSet(s.pipeline, frame.GlobalDescriptorSet)
	for _, obj := range lights {
		push := metadata.PointLightPushConstants{
			Position: obj.Transform.Translation.Vec4(1),
			Color:    obj.Color.Vec4(obj.PointLight.LightIntensity),
			Radius:   obj.Transform.Scale.X(),
		}
		cb.PushConstants(s.pipeline, metadata.ShaderStageVertex|metadata.ShaderStageFragment, push.Bytes())
		cb.Draw(6, 1, 0, 0)
	}
}

func (s *PointLightSystem) Destroy() {
	s.pipeline.Destroy()
}
