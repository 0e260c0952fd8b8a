package systems

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/scene"
)

type SystemManagerConfig struct {
	ShadersDir   string
	ModelsDir    string
	RotationRate float32
	AmbientColor mgl32.Vec4
}

// SystemManager owns the render systems and the per-slot global uniforms and
// runs one frame through them.
type SystemManager struct {
	Renderer         *renderer.FrameRenderer
	Uniforms         *renderer.GlobalUniforms
	ModelSystem      *ModelSystem
	MeshRenderSystem *MeshRenderSystem
	PointLightSystem *PointLightSystem

	ambientColor mgl32.Vec4
}

func NewSystemManager(config SystemManagerConfig, device metadata.Device, fr *renderer.FrameRenderer) (*SystemManager, error) {
	uniforms, err := renderer.NewGlobalUniforms(device, fr.MaxFramesInFlight())
	if err != nil {
		return nil, err
	}
	mesh, err := NewMeshRenderSystem(device, fr.Swapchain(), config.ShadersDir)
	if err != nil {
		uniforms.Destroy()
		return nil, err
	}
	lights, err := NewPointLightSystem(device, fr.Swapchain(), config.ShadersDir, config.RotationRate)
	if err != nil {
		mesh.Destroy()
		uniforms.Destroy()
		return nil, err
	}
	return &SystemManager{
		Renderer:         fr,
		Uniforms:         uniforms,
		ModelSystem:      NewModelSystem(device, config.ModelsDir),
		MeshRenderSystem: mesh,
		PointLightSystem: lights,
		ambientColor:     config.AmbientColor,
	}, nil
}

func (sm *SystemManager) SetAmbientColor(color mgl32.Vec4) {
	sm.ambientColor = color
}

// DrawFrame renders one frame. It reports false without error when the frame was
// skipped because the swapchain was rebuilt. Any error is fatal: the frame is left
// open and nothing of it is submitted.
func (sm *SystemManager) DrawFrame(objects *scene.Scene, camera *components.Camera, frameTime float32) (bool, error) {
	cb, ok, err := sm.Renderer.BeginFrame()
	if err != nil || !ok {
		return false, err
	}

	frameIndex := sm.Renderer.FrameIndex()
	frame := &renderer.FrameInfo{
		FrameIndex:          frameIndex,
		FrameTime:           frameTime,
		CommandBuffer:       cb,
		Camera:              camera,
		GlobalDescriptorSet: sm.Uniforms.DescriptorSet(frameIndex),
		GameObjects:         objects,
	}

	// update
	ubo := metadata.NewGlobalUbo()
	ubo.Projection = camera.Projection()
	ubo.View = camera.View()
	ubo.AmbientLightColor = sm.ambientColor
	sm.PointLightSystem.Animate(frame)
	if err := sm.PointLightSystem.Update(frame, &ubo); err != nil {
		return false, err
	}
	if err := sm.Uniforms.Write(frameIndex, &ubo); err != nil {
		return false, err
	}

	// render
	if err := sm.Renderer.BeginSwapchainRenderPass(cb); err != nil {
		return false, err
	}
	sm.MeshRenderSystem.Render(frame)
	sm.PointLightSystem.Render(frame)
	if err := sm.Renderer.EndSwapchainRenderPass(cb); err != nil {
		return false, err
	}
	if err := sm.Renderer.EndFrame(); err != nil {
		return false, err
	}
	return true, nil
}

func (sm *SystemManager) Shutdown() error {
	sm.PointLightSystem.Destroy()
	sm.MeshRenderSystem.Destroy()
	sm.Uniforms.Destroy()
	if err := sm.ModelSystem.Shutdown(); err != nil {
		return errors.Wrap(err, "failed to shut down model system")
	}
	return nil
}
