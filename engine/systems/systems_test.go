package systems

import (
	"encoding/binary"
	gomath "math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/renderer/components"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/rendertest"
	"github.com/spaghettifunk/lumen/engine/resources"
	"github.com/spaghettifunk/lumen/engine/scene"
)

type fixture struct {
	device  *rendertest.Device
	window  *rendertest.Window
	manager *SystemManager
	scene   *scene.Scene
	camera  *components.Camera
}

func newFixture(t *testing.T, rotationRate float32) *fixture {
	t.Helper()
	device := rendertest.NewDevice()
	window := rendertest.NewWindow(800, 600)
	fr, err := renderer.NewFrameRenderer(window, device, metadata.MAX_FRAMES_IN_FLIGHT, metadata.ClearValues{Depth: 1})
	require.NoError(t, err)
	sm, err := NewSystemManager(SystemManagerConfig{
		ShadersDir:   "shaders",
		RotationRate: rotationRate,
		AmbientColor: mgl32.Vec4{1, 1, 1, 0.02},
	}, device, fr)
	require.NoError(t, err)

	camera := components.NewCamera()
	camera.SetViewYXZ(mgl32.Vec3{0, 0, -2.5}, mgl32.Vec3{})
	require.NoError(t, camera.SetPerspectiveProjection(math.DegToRad(50), fr.AspectRatio(), 0.1, 250))
	return &fixture{
		device:  device,
		window:  window,
		manager: sm,
		scene:   scene.New(nil),
		camera:  camera,
	}
}

func (f *fixture) frameInfo(cb metadata.CommandBuffer, dt float32) *renderer.FrameInfo {
	return &renderer.FrameInfo{
		FrameTime:     dt,
		CommandBuffer: cb,
		Camera:        f.camera,
		GameObjects:   f.scene,
	}
}

func (f *fixture) addModelObject(t *testing.T, translation mgl32.Vec3) *scene.GameObject {
	t.Helper()
	obj := f.scene.CreateObject()
	geometry := &rendertest.Geometry{VertexCount: 4, IndexCount: 6}
	obj.SetModel(resources.NewModel("quad", geometry))
	obj.Transform.Translation = translation
	return obj
}

func (f *fixture) addLight(t *testing.T, translation mgl32.Vec3) *scene.GameObject {
	t.Helper()
	light := f.scene.Factory().CreatePointLight(10, 0.1, mgl32.Vec3{1, 0.5, 0.25})
	light.Transform.Translation = translation
	require.NoError(t, f.scene.Add(light))
	return light
}

func TestPipelinesCreatedWithExpectedLayouts(t *testing.T) {
	f := newFixture(t, 0)
	require.Len(t, f.device.Pipelines, 2)

	mesh := f.device.Pipelines[0].Config
	assert.Equal(t, "shaders/mesh.vert.spv", mesh.VertexShaderPath)
	assert.True(t, mesh.UseVertexInput)
	assert.False(t, mesh.AlphaBlending)
	assert.EqualValues(t, 128, mesh.PushConstantSize)

	light := f.device.Pipelines[1].Config
	assert.False(t, light.UseVertexInput)
	assert.True(t, light.AlphaBlending)
	assert.EqualValues(t, 36, light.PushConstantSize)

	require.NoError(t, f.manager.Shutdown())
	assert.True(t, f.device.Pipelines[0].Destroyed)
	assert.True(t, f.device.Pipelines[1].Destroyed)
}

func TestMeshRenderSkipsObjectsWithoutModel(t *testing.T) {
	f := newFixture(t, 0)
	a := f.addModelObject(t, mgl32.Vec3{1, 0, 0})
	f.scene.CreateObject()
	b := f.addModelObject(t, mgl32.Vec3{2, 0, 0})

	cb := &rendertest.CommandBuffer{}
	f.manager.MeshRenderSystem.Render(f.frameInfo(cb, 0))

	assert.Equal(t, 1, cb.Count("BindPipeline"))
	assert.Equal(t, 1, cb.Count("BindDescriptorSet"))
	assert.Equal(t, 2, cb.Count("DrawIndexed"))
	require.Len(t, cb.Pushes, 2)

	// ascending id order
	for i, obj := range []*scene.GameObject{a, b} {
		push := cb.Pushes[i]
		require.Len(t, push.Data, 128)
		m := obj.Transform.Mat4()
		x := binary.NativeEndian.Uint32(push.Data[12*4:])
		assert.Equal(t, m[12], mathFloat(x))
	}
}

func TestLightUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t, 0)
	f.addLight(t, mgl32.Vec3{1, -1, 0})
	f.addLight(t, mgl32.Vec3{-1, -1, 0})
	frame := f.frameInfo(&rendertest.CommandBuffer{}, 0.016)

	ubo := metadata.NewGlobalUbo()
	require.NoError(t, f.manager.PointLightSystem.Update(frame, &ubo))
	first := ubo
	require.NoError(t, f.manager.PointLightSystem.Update(frame, &ubo))

	assert.Equal(t, first, ubo)
	assert.EqualValues(t, 2, ubo.NumLights)
	assert.Equal(t, mgl32.Vec4{1, -1, 0, 1}, ubo.PointLights[0].Position)
	assert.Equal(t, mgl32.Vec4{1, 0.5, 0.25, 10}, ubo.PointLights[0].Color)
}

func TestLightUpdateClearsStaleSlots(t *testing.T) {
	f := newFixture(t, 0)
	f.addLight(t, mgl32.Vec3{1, -1, 0})
	ubo := metadata.NewGlobalUbo()
	ubo.PointLights[5].Color = mgl32.Vec4{1, 1, 1, 1}
	ubo.NumLights = 6
	require.NoError(t, f.manager.PointLightSystem.Update(f.frameInfo(nil, 0), &ubo))
	assert.EqualValues(t, 1, ubo.NumLights)
	assert.Equal(t, metadata.PointLight{}, ubo.PointLights[5])
}

func TestLightCapacityExceededIsFatal(t *testing.T) {
	f := newFixture(t, 0)
	for i := 0; i < metadata.MAX_LIGHTS+1; i++ {
		f.addLight(t, mgl32.Vec3{float32(i), 0, 0})
	}
	ubo := metadata.NewGlobalUbo()
	before := ubo

	err := f.manager.PointLightSystem.Update(f.frameInfo(nil, 0), &ubo)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLightCapacityExceeded))
	assert.True(t, core.IsPrecondition(err))
	assert.Equal(t, before, ubo)

	ok, err := f.manager.DrawFrame(f.scene, f.camera, 0.016)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, core.ErrLightCapacityExceeded))
	assert.Zero(t, f.device.Current().Submitted)
}

func TestLightRenderDrawsBillboardsBackToFront(t *testing.T) {
	f := newFixture(t, 0)
	near := f.addLight(t, mgl32.Vec3{0, 0, -1})
	far := f.addLight(t, mgl32.Vec3{0, 0, 5})
	near.Transform.Scale[0] = 0.2

	cb := &rendertest.CommandBuffer{}
	f.manager.PointLightSystem.Render(f.frameInfo(cb, 0))

	draws := cb.Find("Draw")
	require.Len(t, draws, 2)
	assert.Equal(t, []interface{}{uint32(6), uint32(1), uint32(0), uint32(0)}, draws[0].Args)

	require.Len(t, cb.Pushes, 2)
	z := func(data []byte) float32 { return mathFloat(binary.NativeEndian.Uint32(data[8:])) }
	radius := func(data []byte) float32 { return mathFloat(binary.NativeEndian.Uint32(data[32:])) }
	assert.Equal(t, far.Transform.Translation.Z(), z(cb.Pushes[0].Data))
	assert.Equal(t, near.Transform.Translation.Z(), z(cb.Pushes[1].Data))
	assert.Equal(t, float32(0.2), radius(cb.Pushes[1].Data))
}

func TestLightRenderWithoutLightsRecordsNothing(t *testing.T) {
	f := newFixture(t, 0)
	cb := &rendertest.CommandBuffer{}
	f.manager.PointLightSystem.Render(f.frameInfo(cb, 0))
	assert.Empty(t, cb.Calls)
}

func TestEmptySceneFrameCompletes(t *testing.T) {
	f := newFixture(t, 0.5)
	ok, err := f.manager.DrawFrame(f.scene, f.camera, 0.016)
	require.NoError(t, err)
	require.True(t, ok)

	cb := f.device.CommandBuffers[0]
	assert.Zero(t, cb.Count("DrawIndexed"))
	assert.Zero(t, cb.Count("Draw"))
	assert.Equal(t, []string{
		"Begin", "BeginRenderPass", "SetViewport", "SetScissor",
		"BindPipeline", "BindDescriptorSet",
		"EndRenderPass", "End",
	}, cb.Names())

	ubo := f.device.UniformBuffers[0]
	assert.Equal(t, 1, ubo.Writes)
	assert.Equal(t, 1, ubo.Flushes)
	assert.Zero(t, binary.NativeEndian.Uint32(ubo.Data[464:]))
	assert.Equal(t, []uint32{0}, f.device.Current().Submitted)
}

func TestDrawFrameRecordsMeshesBeforeLights(t *testing.T) {
	f := newFixture(t, 0.5)
	f.addModelObject(t, mgl32.Vec3{})
	f.addLight(t, mgl32.Vec3{1, -1, 0})

	for i := 0; i < 3; i++ {
		ok, err := f.manager.DrawFrame(f.scene, f.camera, 0.016)
		require.NoError(t, err)
		require.True(t, ok)
	}
	cb := f.device.CommandBuffers[0]
	assert.Equal(t, []string{
		"Begin", "BeginRenderPass", "SetViewport", "SetScissor",
		"BindPipeline", "BindDescriptorSet", "PushConstants", "BindGeometry", "DrawIndexed",
		"BindPipeline", "BindDescriptorSet", "PushConstants", "Draw",
		"EndRenderPass", "End",
	}, cb.Names())

	// slots alternate between the two uniform buffers
	assert.Equal(t, 2, f.device.UniformBuffers[0].Writes)
	assert.Equal(t, 1, f.device.UniformBuffers[1].Writes)
	set := cb.Find("BindDescriptorSet")[0].Args[1].(*rendertest.DescriptorSet)
	assert.Same(t, f.device.UniformBuffers[0], set.Buffer)
}

func TestDrawFrameSkipsWhenSwapchainOutOfDate(t *testing.T) {
	f := newFixture(t, 0.5)
	light := f.addLight(t, mgl32.Vec3{1, -1, 0})
	f.device.AcquireResults = []metadata.Result{metadata.RESULT_OUT_OF_DATE}

	ok, err := f.manager.DrawFrame(f.scene, f.camera, 0.016)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, f.device.Swapchains, 2)
	// a skipped frame does not advance the animation
	assert.Equal(t, mgl32.Vec3{1, -1, 0}, light.Transform.Translation)
	assert.Zero(t, f.device.UniformBuffers[0].Writes)
}

func TestLightOrbitFollowsRateTimesElapsedTime(t *testing.T) {
	const rate = float32(0.5)
	const dt = float32(1.0 / 60.0)
	f := newFixture(t, rate)
	f.addModelObject(t, mgl32.Vec3{})
	start := mgl32.Vec3{-1, -1, -1}
	light := f.addLight(t, start)

	total := float32(0)
	for i := 0; i < 240; i++ {
		ok, err := f.manager.DrawFrame(f.scene, f.camera, dt)
		require.NoError(t, err)
		require.True(t, ok)
		total += dt

		want := mgl32.HomogRotate3D(rate*total, LightOrbitAxis).Mul4x1(start.Vec4(1)).Vec3()
		require.True(t, light.Transform.Translation.ApproxEqualThreshold(want, 1e-4),
			"frame %d: got %v want %v", i, light.Transform.Translation, want)
	}
	// orbit keeps height and radius
	p := light.Transform.Translation
	assert.InDelta(t, -1, p.Y(), 1e-4)
	assert.InDelta(t, 2, p.X()*p.X()+p.Z()*p.Z(), 1e-3)
}

func TestSetRotationRate(t *testing.T) {
	f := newFixture(t, 0)
	light := f.addLight(t, mgl32.Vec3{1, 0, 0})
	f.manager.PointLightSystem.Animate(f.frameInfo(nil, 1))
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, light.Transform.Translation)

	f.manager.PointLightSystem.SetRotationRate(math.K_HALF_PI)
	assert.Equal(t, math.K_HALF_PI, f.manager.PointLightSystem.RotationRate())
	f.manager.PointLightSystem.Animate(f.frameInfo(nil, 1))
	// a quarter turn around -Y takes +X to +Z
	assert.True(t, light.Transform.Translation.ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-6),
		"got %v", light.Transform.Translation)
}

func TestModelSystemSharesModels(t *testing.T) {
	device := rendertest.NewDevice()
	ms := NewModelSystem(device, "")
	vertices := []metadata.Vertex{{}, {}, {}}

	m, err := ms.Create("tri", vertices, nil)
	require.NoError(t, err)
	_, err = ms.Create("tri", vertices, nil)
	assert.Error(t, err)

	again, err := ms.Acquire("tri")
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.EqualValues(t, 3, m.RefCount())
	assert.Len(t, device.Geometries, 1)

	_, err = ms.Acquire("missing.obj")
	assert.Error(t, err)

	require.NoError(t, ms.Shutdown())
	assert.EqualValues(t, 2, m.RefCount())
	m.Release()
	again.Release()
	assert.True(t, device.Geometries[0].Destroyed)
	assert.Zero(t, ms.Len())
}

func mathFloat(bits uint32) float32 {
	return gomath.Float32frombits(bits)
}
