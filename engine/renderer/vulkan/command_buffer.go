package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

// VulkanCommandBuffer records into the swapchain render pass. Arguments that come
// from another backend are logged and ignored.
type VulkanCommandBuffer struct {
	context *VulkanContext
	pool    vk.CommandPool

	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

func NewVulkanCommandBuffers(context *VulkanContext, pool vk.CommandPool, count int, isPrimary bool) ([]*VulkanCommandBuffer, error) {
	level := vk.CommandBufferLevelSecondary
	if isPrimary {
		level = vk.CommandBufferLevelPrimary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: uint32(count),
		Level:              level,
	}

	handles := make([]vk.CommandBuffer, count)
	err := context.lockPool.SafeCall(CommandBufferManagement, func() error {
		if res := vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles); res != vk.Success {
			return resultError(res, "vkAllocateCommandBuffers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	buffers := make([]*VulkanCommandBuffer, count)
	for i, handle := range handles {
		buffers[i] = &VulkanCommandBuffer{
			context: context,
			pool:    pool,
			Handle:  handle,
			State:   COMMAND_BUFFER_STATE_READY,
		}
	}
	return buffers, nil
}

func (v *VulkanCommandBuffer) Free() {
	if v.Handle == nil {
		return
	}
	_ = v.context.lockPool.SafeCall(CommandBufferManagement, func() error {
		vk.FreeCommandBuffers(v.context.Device.LogicalDevice, v.pool, 1, []vk.CommandBuffer{v.Handle})
		return nil
	})
	v.Handle = nil
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

// Begin resets the buffer and starts a new recording.
func (v *VulkanCommandBuffer) Begin() error {
	return v.begin(false)
}

func (v *VulkanCommandBuffer) begin(singleUse bool) error {
	if res := vk.ResetCommandBuffer(v.Handle, 0); res != vk.Success {
		return resultError(res, "vkResetCommandBuffer")
	}
	v.State = COMMAND_BUFFER_STATE_READY

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if singleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}

	if res := vk.BeginCommandBuffer(v.Handle, &beginInfo); res != vk.Success {
		return resultError(res, "vkBeginCommandBuffer")
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (v *VulkanCommandBuffer) End() error {
	if res := vk.EndCommandBuffer(v.Handle); res != vk.Success {
		return resultError(res, "vkEndCommandBuffer")
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *VulkanCommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (v *VulkanCommandBuffer) BeginRenderPass(target metadata.Swapchain, imageIndex uint32, clear metadata.ClearValues) {
	swapchain, ok := target.(*VulkanSwapchain)
	if !ok {
		core.LogError("cannot begin render pass on a %T swapchain", target)
		return
	}
	swapchain.Renderpass.Begin(v, swapchain.Framebuffers[imageIndex], clear)
}

func (v *VulkanCommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(v.Handle)
	v.State = COMMAND_BUFFER_STATE_RECORDING
}

func (v *VulkanCommandBuffer) SetViewport(viewport metadata.Viewport) {
	vk.CmdSetViewport(v.Handle, 0, 1, []vk.Viewport{{
		X:        viewport.X,
		Y:        viewport.Y,
		Width:    viewport.Width,
		Height:   viewport.Height,
		MinDepth: viewport.MinDepth,
		MaxDepth: viewport.MaxDepth,
	}})
}

func (v *VulkanCommandBuffer) SetScissor(scissor metadata.Rect) {
	vk.CmdSetScissor(v.Handle, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: scissor.X, Y: scissor.Y},
		Extent: vk.Extent2D{Width: scissor.Width, Height: scissor.Height},
	}})
}

func (v *VulkanCommandBuffer) BindPipeline(pipeline metadata.Pipeline) {
	p, ok := pipeline.(*VulkanPipeline)
	if !ok {
		core.LogError("cannot bind a %T pipeline", pipeline)
		return
	}
	p.Bind(v, vk.PipelineBindPointGraphics)
}

func (v *VulkanCommandBuffer) BindDescriptorSet(pipeline metadata.Pipeline, set metadata.DescriptorSet) {
	p, ok := pipeline.(*VulkanPipeline)
	if !ok {
		core.LogError("cannot bind descriptors for a %T pipeline", pipeline)
		return
	}
	s, ok := set.(*VulkanDescriptorSet)
	if !ok {
		core.LogError("cannot bind a %T descriptor set", set)
		return
	}
	vk.CmdBindDescriptorSets(
		v.Handle,
		vk.PipelineBindPointGraphics,
		p.PipelineLayout,
		0,
		1,
		[]vk.DescriptorSet{s.Handle},
		0,
		nil)
}

func (v *VulkanCommandBuffer) PushConstants(pipeline metadata.Pipeline, stages metadata.ShaderStage, data []byte) {
	p, ok := pipeline.(*VulkanPipeline)
	if !ok {
		core.LogError("cannot push constants to a %T pipeline", pipeline)
		return
	}
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(
		v.Handle,
		p.PipelineLayout,
		vk.ShaderStageFlags(stages),
		0,
		uint32(len(data)),
		unsafe.Pointer(&data[0]))
}

func (v *VulkanCommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(v.Handle, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (v *VulkanCommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(v.Handle, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

// AllocateAndBeginSingleUse returns a buffer already recording, for one-off transfers.
func AllocateAndBeginSingleUse(context *VulkanContext, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	buffers, err := NewVulkanCommandBuffers(context, pool, 1, true)
	if err != nil {
		return nil, err
	}
	cb := buffers[0]
	if err := cb.begin(true); err != nil {
		cb.Free()
		return nil, err
	}
	return cb, nil
}

// EndSingleUse ends recording, submits to queue, waits for it to drain and frees the buffer.
func (v *VulkanCommandBuffer) EndSingleUse(queue vk.Queue, queueFamilyIndex uint32) error {
	defer v.Free()

	if err := v.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}

	return v.context.lockPool.SafeQueueCall(queueFamilyIndex, func() error {
		if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
			return resultError(res, "vkQueueSubmit")
		}
		v.UpdateSubmitted()
		if res := vk.QueueWaitIdle(queue); res != vk.Success {
			return resultError(res, "vkQueueWaitIdle")
		}
		return nil
	})
}
