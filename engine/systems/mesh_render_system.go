package systems

import (
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/scene"
)

// MeshRenderSystem draws every game object that has a model, with one pipeline
// and one push constant block per object.
type MeshRenderSystem struct {
	device   metadata.Device
	pipeline metadata.Pipeline
}

func NewMeshRenderSystem(device metadata.Device, target metadata.Swapchain, shadersDir string) (*MeshRenderSystem, error) {
	config := metadata.DefaultPipelineConfig(
		"mesh",
		filepath.Join(shadersDir, "mesh.vert.spv"),
		filepath.Join(shadersDir, "mesh.frag.spv"),
	)
	config.PushConstantSize = metadata.MeshPushConstantsSize
	config.PushConstantStages = metadata.ShaderStageVertex | metadata.ShaderStageFragment

	pipeline, err := device.CreatePipeline(config, target)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create mesh pipeline")
	}
	return &MeshRenderSystem{
		device:   device,
		pipeline: pipeline,
	}, nil
}

func (s *MeshRenderSystem) Render(frame *renderer.FrameInfo) {
	cb := frame.CommandBuffer
	cb.BindPipeline(s.pipeline)
	cb.BindDescriptorSet(s.pipeline, frame.GlobalDescriptorSet)

	frame.GameObjects.Each(func(obj *scene.GameObject) {
		if obj.Model == nil {
			return
		}
		push := metadata.MeshPushConstants{
			ModelMatrix:  obj.Transform.Mat4(),
			NormalMatrix: obj.Transform.NormalMatrix(),
		}
		cb.PushConstants(s.pipeline, metadata.ShaderStageVertex|metadata.ShaderStageFragment, push.Bytes())
		obj.Model.Bind(cb)
		obj.Model.Draw(cb)
	})
}

func (s *MeshRenderSystem) Destroy() {
	s.pipeline.Destroy()
}
