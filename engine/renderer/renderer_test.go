package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/rendertest"
)

func newTestRenderer(t *testing.T) (*FrameRenderer, *rendertest.Device, *rendertest.Window) {
	t.Helper()
	device := rendertest.NewDevice()
	window := rendertest.NewWindow(800, 600)
	r, err := NewFrameRenderer(window, device, metadata.MAX_FRAMES_IN_FLIGHT, metadata.ClearValues{Depth: 1})
	require.NoError(t, err)
	require.Len(t, device.Swapchains, 1)
	return r, device, window
}

func runFrame(t *testing.T, r *FrameRenderer) metadata.CommandBuffer {
	t.Helper()
	cb, ok, err := r.BeginFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, r.BeginSwapchainRenderPass(cb))
	require.NoError(t, r.EndSwapchainRenderPass(cb))
	require.NoError(t, r.EndFrame())
	return cb
}

func TestFrameStateAlternatesStrictly(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	assert.False(t, r.IsFrameInProgress())

	cb, ok, err := r.BeginFrame()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, cb)
	assert.True(t, r.IsFrameInProgress())

	_, ok, err = r.BeginFrame()
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, core.IsPrecondition(err))
	assert.True(t, r.IsFrameInProgress())

	require.NoError(t, r.EndFrame())
	assert.False(t, r.IsFrameInProgress())

	err = r.EndFrame()
	require.Error(t, err)
	assert.True(t, core.IsPrecondition(err))
}

func TestRenderPassRequiresCurrentBuffer(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	other := &rendertest.CommandBuffer{}

	assert.True(t, core.IsPrecondition(r.BeginSwapchainRenderPass(other)))

	_, ok, err := r.BeginFrame()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, core.IsPrecondition(r.BeginSwapchainRenderPass(other)))
	assert.True(t, core.IsPrecondition(r.EndSwapchainRenderPass(other)))
	require.NoError(t, r.EndFrame())
}

func TestRenderPassSetsViewportAndScissorFromExtent(t *testing.T) {
	r, _, _ := newTestRenderer(t)
	cb := runFrame(t, r).(*rendertest.CommandBuffer)

	assert.Equal(t, []string{"Begin", "BeginRenderPass", "SetViewport", "SetScissor", "EndRenderPass", "End"}, cb.Names())
	viewport := cb.Find("SetViewport")[0].Args[0].(metadata.Viewport)
	assert.Equal(t, metadata.Viewport{Width: 800, Height: 600, MinDepth: 0, MaxDepth: 1}, viewport)
	scissor := cb.Find("SetScissor")[0].Args[0].(metadata.Rect)
	assert.Equal(t, metadata.Rect{Width: 800, Height: 600}, scissor)
}

func TestFrameIndexCyclesOverSlots(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	var slots []uint32
	for i := 0; i < 5; i++ {
		slots = append(slots, r.FrameIndex())
		runFrame(t, r)
	}
	assert.Equal(t, []uint32{0, 1, 0, 1, 0}, slots)
	assert.Equal(t, []uint32{0, 1, 0, 1, 0}, device.Current().Submitted)
}

func TestAcquireOutOfDateSkipsFrameAndRecreates(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	device.AcquireResults = []metadata.Result{metadata.RESULT_OUT_OF_DATE}
	first := device.Current()

	cb, ok, err := r.BeginFrame()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, cb)
	assert.False(t, r.IsFrameInProgress())
	require.Len(t, device.Swapchains, 2)
	assert.True(t, first.Destroyed)
	assert.Same(t, first, device.Current().Previous)

	runFrame(t, r)
}

func TestAcquireSuboptimalStillRenders(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	device.AcquireResults = []metadata.Result{metadata.RESULT_SUBOPTIMAL}
	runFrame(t, r)
	// the present path handles recreation
	assert.Len(t, device.Swapchains, 1)
}

func TestAcquireFailureIsFatal(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	device.AcquireResults = []metadata.Result{metadata.RESULT_ERROR}
	_, ok, err := r.BeginFrame()
	require.Error(t, err)
	assert.False(t, ok)
	assert.False(t, core.IsPrecondition(err))

	device.AcquireErr = errors.New("device lost")
	_, _, err = r.BeginFrame()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device lost")
	assert.False(t, r.IsFrameInProgress())
}

func TestBeginRecordingFailureLeavesRendererIdle(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	device.CommandBuffers[0].BeginErr = errors.New("boom")
	_, ok, err := r.BeginFrame()
	require.Error(t, err)
	assert.False(t, ok)
	assert.False(t, r.IsFrameInProgress())
}

func TestPresentOutOfDateOrSuboptimalRecreates(t *testing.T) {
	for _, result := range []metadata.Result{metadata.RESULT_OUT_OF_DATE, metadata.RESULT_SUBOPTIMAL} {
		t.Run(result.String(), func(t *testing.T) {
			r, device, _ := newTestRenderer(t)
			device.PresentResults = []metadata.Result{result}
			runFrame(t, r)
			assert.Len(t, device.Swapchains, 2)
			assert.False(t, r.IsFrameInProgress())
			assert.EqualValues(t, 1, r.FrameIndex())
		})
	}
}

func TestPresentFailureIsFatalAndReturnsToIdle(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	device.PresentResults = []metadata.Result{metadata.RESULT_ERROR}
	_, ok, err := r.BeginFrame()
	require.NoError(t, err)
	require.True(t, ok)

	err = r.EndFrame()
	require.Error(t, err)
	assert.False(t, core.IsPrecondition(err))
	assert.False(t, r.IsFrameInProgress())
}

func TestResizeFlagRecreatesAndIsCleared(t *testing.T) {
	r, device, window := newTestRenderer(t)
	window.Queue(metadata.Extent{Width: 1024, Height: 768})
	window.Resized = true

	runFrame(t, r)
	assert.False(t, window.Resized)
	require.Len(t, device.Swapchains, 2)
	assert.Equal(t, metadata.Extent{Width: 1024, Height: 768}, device.Current().Extent())
	assert.InDelta(t, 1024.0/768.0, r.AspectRatio(), 1e-6)

	runFrame(t, r)
	assert.Len(t, device.Swapchains, 2)
}

func TestMinimizeBlocksThenResumes(t *testing.T) {
	r, device, window := newTestRenderer(t)
	runFrame(t, r)

	// minimized, then restored while the renderer waits for events
	window.Queue(metadata.Extent{}, metadata.Extent{Width: 800, Height: 600})
	window.Resized = true
	runFrame(t, r)
	assert.Equal(t, 1, window.WaitEventsCalls)
	require.Len(t, device.Swapchains, 2)
	assert.Equal(t, metadata.Extent{Width: 800, Height: 600}, device.Current().Extent())

	runFrame(t, r)
	assert.Len(t, device.Swapchains, 2)
	assert.Equal(t, 1, window.WaitEventsCalls)
}

func TestWindowClosedWhileMinimized(t *testing.T) {
	r, device, window := newTestRenderer(t)
	window.Queue(metadata.Extent{})
	window.Closed = true
	device.AcquireResults = []metadata.Result{metadata.RESULT_OUT_OF_DATE}

	_, ok, err := r.BeginFrame()
	assert.False(t, ok)
	assert.True(t, errors.Is(err, core.ErrWindowClosed))
	assert.Len(t, device.Swapchains, 1)
}

func TestCommandBuffersFollowImageCount(t *testing.T) {
	r, device, window := newTestRenderer(t)
	require.Len(t, device.CommandBuffers, metadata.MAX_FRAMES_IN_FLIGHT)

	window.Resized = true
	runFrame(t, r)
	require.Len(t, device.Swapchains, 2)
	assert.True(t, device.Swapchains[0].Destroyed)
	assert.Zero(t, device.Swapchains[0].ImageCount())
	assert.Len(t, device.CommandBuffers, metadata.MAX_FRAMES_IN_FLIGHT)
	assert.Zero(t, device.FreedBuffers)

	device.ImageCount = 2
	window.Resized = true
	runFrame(t, r)
	assert.Len(t, device.CommandBuffers, 2*metadata.MAX_FRAMES_IN_FLIGHT)
	assert.Equal(t, metadata.MAX_FRAMES_IN_FLIGHT, device.FreedBuffers)

	runFrame(t, r)
}

func TestFormatChangeIsFatal(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	first := device.Current()
	device.Format = 1
	device.AcquireResults = []metadata.Result{metadata.RESULT_OUT_OF_DATE}

	_, _, err := r.BeginFrame()
	assert.True(t, errors.Is(err, core.ErrSwapchainFormatChanged))
	assert.True(t, first.Destroyed)
	assert.True(t, device.Current().Destroyed)
}

func TestRecreateWaitsForDeviceIdle(t *testing.T) {
	r, device, window := newTestRenderer(t)
	before := device.WaitIdleCalls
	window.Resized = true
	runFrame(t, r)
	assert.Equal(t, before+1, device.WaitIdleCalls)
}

func TestDestroyReleasesSwapchainAndBuffers(t *testing.T) {
	r, device, _ := newTestRenderer(t)
	sc := device.Current()
	r.Destroy()
	assert.True(t, sc.Destroyed)
	assert.Equal(t, metadata.MAX_FRAMES_IN_FLIGHT, device.FreedBuffers)
}

func TestZeroFramesInFlightRejected(t *testing.T) {
	_, err := NewFrameRenderer(rendertest.NewWindow(1, 1), rendertest.NewDevice(), 0, metadata.ClearValues{})
	assert.True(t, core.IsPrecondition(err))
}

func TestGlobalUniformsWriteAndFlushPerSlot(t *testing.T) {
	device := rendertest.NewDevice()
	g, err := NewGlobalUniforms(device, 2)
	require.NoError(t, err)
	require.Len(t, device.UniformBuffers, 2)

	ubo := metadata.NewGlobalUbo()
	ubo.NumLights = 3
	require.NoError(t, g.Write(1, &ubo))
	assert.Zero(t, device.UniformBuffers[0].Writes)
	assert.Equal(t, 1, device.UniformBuffers[1].Writes)
	assert.Equal(t, 1, device.UniformBuffers[1].Flushes)
	assert.Len(t, device.UniformBuffers[1].Data, int(metadata.GlobalUboSize))

	set := g.DescriptorSet(1).(*rendertest.DescriptorSet)
	assert.Same(t, device.UniformBuffers[1], set.Buffer)

	assert.True(t, core.IsPrecondition(g.Write(2, &ubo)))

	g.Destroy()
	assert.True(t, device.UniformBuffers[0].Destroyed)
}
