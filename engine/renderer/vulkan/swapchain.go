package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/math"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// VulkanSwapchain bundles the presentable images with everything that has to be
// rebuilt alongside them: depth buffer, render pass, framebuffers and the
// per-frame-slot synchronization objects.
type VulkanSwapchain struct {
	context *VulkanContext

	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	DepthFormat vk.Format
	Size        vk.Extent2D
	Images      []vk.Image
	Views       []vk.ImageView

	DepthAttachment *VulkanImage
	Renderpass      *VulkanRenderpass
	Framebuffers    []*VulkanFramebuffer

	ImageAvailableSemaphores []vk.Semaphore
	QueueCompleteSemaphores  []vk.Semaphore
	InFlightFences           []*VulkanFence
	// Holds pointers to fences which exist and are owned elsewhere.
	ImagesInFlight []*VulkanFence
}

// SwapchainCreate builds a swapchain for extent. When old is set it is handed to
// the driver for resource reuse; the caller still destroys it.
func SwapchainCreate(context *VulkanContext, extent metadata.Extent, old *VulkanSwapchain, maxFramesInFlight uint32) (*VulkanSwapchain, error) {
	swapchain := &VulkanSwapchain{
		context:     context,
		DepthFormat: context.Device.DepthFormat,
	}

	if err := swapchain.createHandle(extent, old); err != nil {
		swapchain.Destroy()
		return nil, err
	}
	if err := swapchain.createImageViews(); err != nil {
		swapchain.Destroy()
		return nil, err
	}

	depthAttachment, err := ImageCreate(
		context,
		swapchain.Size.Width,
		swapchain.Size.Height,
		swapchain.DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		swapchain.Destroy()
		return nil, errors.Wrap(err, "failed to create depth attachment")
	}
	swapchain.DepthAttachment = depthAttachment

	renderpass, err := RenderpassCreate(context, swapchain.ImageFormat.Format, swapchain.DepthFormat)
	if err != nil {
		swapchain.Destroy()
		return nil, err
	}
	swapchain.Renderpass = renderpass

	if err := swapchain.createFramebuffers(); err != nil {
		swapchain.Destroy()
		return nil, err
	}
	if err := swapchain.createSyncObjects(maxFramesInFlight); err != nil {
		swapchain.Destroy()
		return nil, err
	}

	core.LogInfo("Swapchain created successfully: %dx%d, %d images.", swapchain.Size.Width, swapchain.Size.Height, len(swapchain.Images))
	return swapchain, nil
}

func (vs *VulkanSwapchain) createHandle(extent metadata.Extent, old *VulkanSwapchain) error {
	context := vs.context
	support := &context.Device.SwapchainSupport
	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, support); err != nil {
		return err
	}
	if len(support.Formats) == 0 {
		return errors.New("surface reports no formats")
	}

	vs.ImageFormat = chooseSurfaceFormat(support.Formats)
	presentMode := choosePresentMode(support.PresentModes)

	capabilities := support.Capabilities
	swapchainExtent := vk.Extent2D{Width: extent.Width, Height: extent.Height}
	if capabilities.CurrentExtent.Width != ^uint32(0) {
		swapchainExtent = capabilities.CurrentExtent
	}
	// Clamp to the value allowed by the GPU.
	swapchainExtent.Width = math.Clamp(swapchainExtent.Width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width)
	swapchainExtent.Height = math.Clamp(swapchainExtent.Height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height)
	vs.Size = swapchainExtent

	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      vs.ImageFormat.Format,
		ImageColorSpace:  vs.ImageFormat.ColorSpace,
		ImageExtent:      swapchainExtent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if old != nil {
		swapchainCreateInfo.OldSwapchain = old.Handle
	}

	device := context.Device
	if device.GraphicsQueueIndex != device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(device.GraphicsQueueIndex),
			uint32(device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	return context.lockPool.SafeCall(SwapchainManagement, func() error {
		var handle vk.Swapchain
		if res := vk.CreateSwapchain(device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &handle); res != vk.Success {
			return resultError(res, "vkCreateSwapchainKHR")
		}
		vs.Handle = handle

		var count uint32
		if res := vk.GetSwapchainImages(device.LogicalDevice, vs.Handle, &count, nil); res != vk.Success {
			return resultError(res, "vkGetSwapchainImagesKHR")
		}
		vs.Images = make([]vk.Image, count)
		if res := vk.GetSwapchainImages(device.LogicalDevice, vs.Handle, &count, vs.Images); res != vk.Success {
			return resultError(res, "vkGetSwapchainImagesKHR")
		}
		return nil
	})
}

func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	return formats[0]
}

// Mailbox when available, FIFO otherwise since it is always supported.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			core.LogDebug("Present mode: Mailbox")
			return mode
		}
	}
	core.LogDebug("Present mode: V-Sync")
	return vk.PresentModeFifo
}

func (vs *VulkanSwapchain) createImageViews() error {
	vs.Views = make([]vk.ImageView, len(vs.Images))
	for i, image := range vs.Images {
		view, err := createImageView(vs.context, image, vs.ImageFormat.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return err
		}
		vs.Views[i] = view
	}
	return nil
}

func (vs *VulkanSwapchain) createFramebuffers() error {
	vs.Framebuffers = make([]*VulkanFramebuffer, len(vs.Views))
	for i, view := range vs.Views {
		attachments := []vk.ImageView{view, vs.DepthAttachment.View}
		fb, err := FramebufferCreate(vs.context, vs.Renderpass, vs.Size.Width, vs.Size.Height, attachments)
		if err != nil {
			return err
		}
		vs.Framebuffers[i] = fb
	}
	return nil
}

func (vs *VulkanSwapchain) createSyncObjects(maxFramesInFlight uint32) error {
	context := vs.context
	vs.ImageAvailableSemaphores = make([]vk.Semaphore, maxFramesInFlight)
	vs.QueueCompleteSemaphores = make([]vk.Semaphore, maxFramesInFlight)
	vs.InFlightFences = make([]*VulkanFence, maxFramesInFlight)
	// Not owned, only tracks which slot last rendered to each image.
	vs.ImagesInFlight = make([]*VulkanFence, len(vs.Images))

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	for i := 0; i < int(maxFramesInFlight); i++ {
		if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &vs.ImageAvailableSemaphores[i]); res != vk.Success {
			return resultError(res, "vkCreateSemaphore")
		}
		if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &vs.QueueCompleteSemaphores[i]); res != vk.Success {
			return resultError(res, "vkCreateSemaphore")
		}
		// Created signaled so the first wait on each slot returns immediately.
		fence, err := NewFence(context, true)
		if err != nil {
			return err
		}
		vs.InFlightFences[i] = fence
	}
	return nil
}

func (vs *VulkanSwapchain) Extent() metadata.Extent {
	return metadata.Extent{Width: vs.Size.Width, Height: vs.Size.Height}
}

func (vs *VulkanSwapchain) ImageCount() int {
	return len(vs.Images)
}

func (vs *VulkanSwapchain) AcquireNextImage(frameIndex uint32) (uint32, metadata.Result, error) {
	if int(frameIndex) >= len(vs.InFlightFences) {
		return 0, metadata.RESULT_ERROR, core.Precondition("frame index %d out of range [0, %d)", frameIndex, len(vs.InFlightFences))
	}
	// Wait for the execution of the slot's previous frame to complete.
	if err := vs.InFlightFences[frameIndex].Wait(vs.context, VULKAN_NO_TIMEOUT); err != nil {
		return 0, metadata.RESULT_ERROR, errors.Wrap(err, "in-flight fence wait failure")
	}

	var imageIndex uint32
	result := vk.AcquireNextImage(
		vs.context.Device.LogicalDevice,
		vs.Handle,
		VULKAN_NO_TIMEOUT,
		vs.ImageAvailableSemaphores[frameIndex],
		vk.NullFence,
		&imageIndex)

	mapped := presentResult(result)
	if mapped == metadata.RESULT_ERROR {
		return 0, mapped, resultError(result, "vkAcquireNextImageKHR")
	}
	return imageIndex, mapped, nil
}

func (vs *VulkanSwapchain) Submit(buffer metadata.CommandBuffer, frameIndex, imageIndex uint32) (metadata.Result, error) {
	cb, ok := buffer.(*VulkanCommandBuffer)
	if !ok {
		return metadata.RESULT_ERROR, core.Precondition("cannot submit a %T command buffer", buffer)
	}
	if int(imageIndex) >= len(vs.Images) {
		return metadata.RESULT_ERROR, core.Precondition("image index %d out of range [0, %d)", imageIndex, len(vs.Images))
	}
	context := vs.context
	device := context.Device

	// Make sure the previous frame is not using this image.
	if fence := vs.ImagesInFlight[imageIndex]; fence != nil {
		if err := fence.Wait(context, VULKAN_NO_TIMEOUT); err != nil {
			return metadata.RESULT_ERROR, errors.Wrap(err, "image fence wait failure")
		}
	}
	fence := vs.InFlightFences[frameIndex]
	vs.ImagesInFlight[imageIndex] = fence
	if err := fence.Reset(context); err != nil {
		return metadata.RESULT_ERROR, err
	}

	// The submission waits on the image being available at the colour output
	// stage and signals the present.
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vs.ImageAvailableSemaphores[frameIndex]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vs.QueueCompleteSemaphores[frameIndex]},
	}
	if err := context.lockPool.SafeQueueCall(uint32(device.GraphicsQueueIndex), func() error {
		if res := vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle); res != vk.Success {
			return resultError(res, "vkQueueSubmit")
		}
		return nil
	}); err != nil {
		return metadata.RESULT_ERROR, err
	}
	cb.UpdateSubmitted()

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{vs.QueueCompleteSemaphores[frameIndex]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
	}
	return presentLocked(context.lockPool, uint32(device.PresentQueueIndex), func() vk.Result {
		return vk.QueuePresent(device.PresentQueue, &presentInfo)
	})
}

// presentLocked runs present under the queue family lock. Out-of-date and
// suboptimal results are reported without an error.
func presentLocked(pool *VulkanLockPool, queueFamilyIndex uint32, present func() vk.Result) (metadata.Result, error) {
	mapped := metadata.RESULT_ERROR
	err := pool.SafeQueueCall(queueFamilyIndex, func() error {
		result := present()
		mapped = presentResult(result)
		if mapped == metadata.RESULT_ERROR {
			return resultError(result, "vkQueuePresentKHR")
		}
		return nil
	})
	if err != nil {
		return metadata.RESULT_ERROR, err
	}
	return mapped, nil
}

// CompareFormats is true when other renders into the same colour and depth formats,
// which keeps pipelines built against this render pass valid.
func (vs *VulkanSwapchain) CompareFormats(other metadata.Swapchain) bool {
	o, ok := other.(*VulkanSwapchain)
	if !ok {
		return false
	}
	return vs.ImageFormat.Format == o.ImageFormat.Format && vs.DepthFormat == o.DepthFormat
}

// Destroy releases everything the swapchain owns. The device must be idle.
func (vs *VulkanSwapchain) Destroy() {
	context := vs.context
	device := context.Device.LogicalDevice

	for i := range vs.InFlightFences {
		if vs.InFlightFences[i] != nil {
			vs.InFlightFences[i].Destroy(context)
		}
	}
	vs.InFlightFences = nil
	vs.ImagesInFlight = nil
	for _, semaphore := range vs.ImageAvailableSemaphores {
		if semaphore != vk.NullSemaphore {
			vk.DestroySemaphore(device, semaphore, context.Allocator)
		}
	}
	vs.ImageAvailableSemaphores = nil
	for _, semaphore := range vs.QueueCompleteSemaphores {
		if semaphore != vk.NullSemaphore {
			vk.DestroySemaphore(device, semaphore, context.Allocator)
		}
	}
	vs.QueueCompleteSemaphores = nil

	for _, fb := range vs.Framebuffers {
		if fb != nil {
			fb.Destroy(context)
		}
	}
	vs.Framebuffers = nil

	if vs.Renderpass != nil {
		vs.Renderpass.Destroy(context)
		vs.Renderpass = nil
	}
	if vs.DepthAttachment != nil {
		vs.DepthAttachment.Destroy(context)
		vs.DepthAttachment = nil
	}

	// Only destroy the views, not the images, since those are owned by the swapchain.
	for _, view := range vs.Views {
		if view != vk.NullImageView {
			vk.DestroyImageView(device, view, context.Allocator)
		}
	}
	vs.Views = nil
	vs.Images = nil

	if vs.Handle != vk.NullSwapchain {
		_ = context.lockPool.SafeCall(SwapchainManagement, func() error {
			vk.DestroySwapchain(device, vs.Handle, context.Allocator)
			return nil
		})
		vs.Handle = vk.NullSwapchain
	}
}
