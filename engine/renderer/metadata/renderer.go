package metadata

import (
	"github.com/go-gl/mathgl/mgl32"
)

/** @brief Size of a drawable surface in pixels. A zero dimension means not presentable. */
type Extent struct {
	Width  uint32
	Height uint32
}

func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent) AspectRatio() float32 {
	if e.Height == 0 {
		return 0
	}
	return float32(e.Width) / float32(e.Height)
}

/** @brief Outcome of a swapchain acquire or present, as seen by the frame renderer. */
type Result int

const (
	RESULT_SUCCESS Result = iota
	RESULT_SUBOPTIMAL
	RESULT_OUT_OF_DATE
	RESULT_ERROR
)

func (r Result) String() string {
	switch r {
	case RESULT_SUCCESS:
		return "success"
	case RESULT_SUBOPTIMAL:
		return "suboptimal"
	case RESULT_OUT_OF_DATE:
		return "out of date"
	default:
		return "error"
	}
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

type Rect struct {
	X, Y          int32
	Width, Height uint32
}

/** @brief Clear values for the swapchain render pass colour and depth attachments. */
type ClearValues struct {
	Color   mgl32.Vec4
	Depth   float32
	Stencil uint32
}

/**
 * @brief The window as seen by the renderer. Extent (0,0) means minimized.
 * WasResized/ResetResized expose a flag consumed once per frame.
 */
type Window interface {
	Extent() Extent
	ShouldClose() bool
	WasResized() bool
	ResetResized()
	// WaitEvents blocks until the platform delivers at least one event.
	WaitEvents()
}

/** @brief Creates and destroys GPU objects. Calls look synchronous to the caller. */
type Device interface {
	WaitIdle() error
	// CreateSwapchain builds a new resource set for extent. previous may be nil;
	// when set, the new swapchain inherits from it and the caller destroys it afterwards.
	CreateSwapchain(extent Extent, previous Swapchain) (Swapchain, error)
	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)
	CreatePipeline(config *PipelineConfig, target Swapchain) (Pipeline, error)
	CreateUniformBuffer(size uint64) (UniformBuffer, error)
	// AllocateGlobalDescriptorSet binds buffer to binding 0 of a new global set.
	AllocateGlobalDescriptorSet(buffer UniformBuffer) (DescriptorSet, error)
	CreateGeometry(vertices []Vertex, indices []uint32) (Geometry, error)
}

/**
 * @brief The presentable images plus their depth buffer, render pass, framebuffers
 * and per-frame synchronization primitives.
 */
type Swapchain interface {
	Extent() Extent
	ImageCount() int
	// AcquireNextImage waits for the frame slot to be free and acquires an image.
	// A non-nil error always comes with RESULT_ERROR.
	AcquireNextImage(frameIndex uint32) (uint32, Result, error)
	// Submit queues the recorded buffer for frameIndex and presents imageIndex.
	Submit(buffer CommandBuffer, frameIndex, imageIndex uint32) (Result, error)
	// CompareFormats reports whether other uses the same image and depth formats.
	CompareFormats(other Swapchain) bool
	Destroy()
}

/** @brief A primary command buffer recording into the swapchain render pass. */
type CommandBuffer interface {
	Begin() error
	End() error
	BeginRenderPass(target Swapchain, imageIndex uint32, clear ClearValues)
	EndRenderPass()
	SetViewport(viewport Viewport)
	SetScissor(scissor Rect)
	BindPipeline(pipeline Pipeline)
	BindDescriptorSet(pipeline Pipeline, set DescriptorSet)
	PushConstants(pipeline Pipeline, stages ShaderStage, data []byte)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
}

type Pipeline interface {
	Destroy()
}

/** @brief Opaque backend descriptor set handle, bound once per render pass. */
type DescriptorSet interface{}

/** @brief Host-visible buffer backing one frame slot of shared uniform data. */
type UniformBuffer interface {
	Size() uint64
	Write(data []byte) error
	Flush() error
	Destroy()
}
