package renderer

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type FrameState int

const (
	FRAME_STATE_IDLE FrameState = iota
	FRAME_STATE_STARTED
)

/**
 * @brief Drives acquire, record, submit and present for one window.
 * BeginFrame and EndFrame must alternate. A frame whose image could not be
 * acquired is skipped, never reported as an error.
 */
type FrameRenderer struct {
	window metadata.Window
	device metadata.Device
	clear  metadata.ClearValues

	swapchain      metadata.Swapchain
	commandBuffers []metadata.CommandBuffer

	maxFramesInFlight uint32
	frameIndex        uint32
	imageIndex        uint32
	state             FrameState
}

func NewFrameRenderer(window metadata.Window, device metadata.Device, maxFramesInFlight uint32, clear metadata.ClearValues) (*FrameRenderer, error) {
	if maxFramesInFlight == 0 {
		return nil, core.Precondition("at least one frame in flight is required")
	}
	r := &FrameRenderer{
		window:            window,
		device:            device,
		clear:             clear,
		maxFramesInFlight: maxFramesInFlight,
	}
	if err := r.recreateSwapchain(); err != nil {
		return nil, err
	}
	core.LogInfo("frame renderer created with %d frames in flight", maxFramesInFlight)
	return r, nil
}

// BeginFrame acquires the next image and opens recording on the frame slot's
// command buffer. ok is false when the swapchain had to be rebuilt; the caller
// skips this iteration.
func (r *FrameRenderer) BeginFrame() (buffer metadata.CommandBuffer, ok bool, err error) {
	if r.state != FRAME_STATE_IDLE {
		return nil, false, core.Precondition("cannot begin a frame while one is already in progress")
	}

	imageIndex, result, err := r.swapchain.AcquireNextImage(r.frameIndex)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to acquire swapchain image")
	}
	switch result {
	case metadata.RESULT_OUT_OF_DATE:
		core.LogDebug("swapchain out of date on acquire, recreating")
		return nil, false, r.recreateSwapchain()
	case metadata.RESULT_SUCCESS, metadata.RESULT_SUBOPTIMAL:
	default:
		return nil, false, errors.Newf("failed to acquire swapchain image: %s", result)
	}
	r.imageIndex = imageIndex

	buffer = r.currentCommandBuffer()
	if err := buffer.Begin(); err != nil {
		return nil, false, errors.Wrap(err, "failed to begin recording command buffer")
	}
	r.state = FRAME_STATE_STARTED
	return buffer, true, nil
}

// EndFrame closes recording, submits and presents. The renderer is idle again
// when it returns, whatever the outcome.
func (r *FrameRenderer) EndFrame() error {
	if r.state != FRAME_STATE_STARTED {
		return core.Precondition("cannot end a frame that was not started")
	}
	defer func() {
		r.state = FRAME_STATE_IDLE
		r.frameIndex = (r.frameIndex + 1) % r.maxFramesInFlight
	}()

	buffer := r.currentCommandBuffer()
	if err := buffer.End(); err != nil {
		return errors.Wrap(err, "failed to record command buffer")
	}

	result, err := r.swapchain.Submit(buffer, r.frameIndex, r.imageIndex)
	if err != nil {
		return errors.Wrap(err, "failed to present swapchain image")
	}
	if result == metadata.RESULT_OUT_OF_DATE || result == metadata.RESULT_SUBOPTIMAL || r.window.WasResized() {
		r.window.ResetResized()
		core.LogDebug("swapchain %s or window resized, recreating", result)
		return r.recreateSwapchain()
	}
	if result != metadata.RESULT_SUCCESS {
		return errors.Newf("failed to present swapchain image: %s", result)
	}
	return nil
}

func (r *FrameRenderer) BeginSwapchainRenderPass(buffer metadata.CommandBuffer) error {
	if err := r.checkRecording(buffer, "begin render pass"); err != nil {
		return err
	}
	extent := r.swapchain.Extent()
	buffer.BeginRenderPass(r.swapchain, r.imageIndex, r.clear)
	buffer.SetViewport(metadata.Viewport{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	})
	buffer.SetScissor(metadata.Rect{Width: extent.Width, Height: extent.Height})
	return nil
}

func (r *FrameRenderer) EndSwapchainRenderPass(buffer metadata.CommandBuffer) error {
	if err := r.checkRecording(buffer, "end render pass"); err != nil {
		return err
	}
	buffer.EndRenderPass()
	return nil
}

func (r *FrameRenderer) checkRecording(buffer metadata.CommandBuffer, action string) error {
	if r.state != FRAME_STATE_STARTED {
		return core.Precondition("cannot %s when no frame is in progress", action)
	}
	if buffer != r.currentCommandBuffer() {
		return core.Precondition("cannot %s on a command buffer from a different frame", action)
	}
	return nil
}

// recreateSwapchain blocks while the window is minimized, then replaces the
// swapchain. Command buffers are reallocated only when the image count changes.
func (r *FrameRenderer) recreateSwapchain() error {
	extent := r.window.Extent()
	for extent.IsZero() {
		if r.window.ShouldClose() {
			return core.ErrWindowClosed
		}
		r.window.WaitEvents()
		extent = r.window.Extent()
	}

	if err := r.device.WaitIdle(); err != nil {
		return errors.Wrap(err, "failed to wait for device idle")
	}

	old := r.swapchain
	swapchain, err := r.device.CreateSwapchain(extent, old)
	if err != nil {
		return errors.Wrapf(err, "failed to create swapchain %dx%d", extent.Width, extent.Height)
	}
	oldImageCount := 0
	if old != nil {
		oldImageCount = old.ImageCount()
		sameFormats := old.CompareFormats(swapchain)
		old.Destroy()
		if !sameFormats {
			swapchain.Destroy()
			r.swapchain = nil
			return core.ErrSwapchainFormatChanged
		}
	}
	r.swapchain = swapchain
	core.LogDebug("swapchain created: %dx%d, %d images", extent.Width, extent.Height, swapchain.ImageCount())

	if old == nil || oldImageCount != swapchain.ImageCount() {
		return r.reallocateCommandBuffers()
	}
	return nil
}

// One buffer per frame slot. The count is tied to the swapchain so that a
// change in image count rebuilds them alongside it.
func (r *FrameRenderer) reallocateCommandBuffers() error {
	if len(r.commandBuffers) > 0 {
		r.device.FreeCommandBuffers(r.commandBuffers)
		r.commandBuffers = nil
	}
	buffers, err := r.device.AllocateCommandBuffers(int(r.maxFramesInFlight))
	if err != nil {
		return errors.Wrap(err, "failed to allocate command buffers")
	}
	r.commandBuffers = buffers
	return nil
}

func (r *FrameRenderer) currentCommandBuffer() metadata.CommandBuffer {
	return r.commandBuffers[r.frameIndex]
}

// CurrentCommandBuffer returns the buffer being recorded.
func (r *FrameRenderer) CurrentCommandBuffer() (metadata.CommandBuffer, error) {
	if r.state != FRAME_STATE_STARTED {
		return nil, core.Precondition("no frame in progress")
	}
	return r.currentCommandBuffer(), nil
}

// FrameIndex is the frame-in-flight slot of the current or next frame.
func (r *FrameRenderer) FrameIndex() uint32 {
	return r.frameIndex
}

func (r *FrameRenderer) IsFrameInProgress() bool {
	return r.state == FRAME_STATE_STARTED
}

func (r *FrameRenderer) AspectRatio() float32 {
	return r.swapchain.Extent().AspectRatio()
}

func (r *FrameRenderer) Swapchain() metadata.Swapchain {
	return r.swapchain
}

func (r *FrameRenderer) MaxFramesInFlight() uint32 {
	return r.maxFramesInFlight
}

// Destroy releases the command buffers and the swapchain. The device must be idle.
func (r *FrameRenderer) Destroy() {
	if len(r.commandBuffers) > 0 {
		r.device.FreeCommandBuffers(r.commandBuffers)
		r.commandBuffers = nil
	}
	if r.swapchain != nil {
		r.swapchain.Destroy()
		r.swapchain = nil
	}
}
