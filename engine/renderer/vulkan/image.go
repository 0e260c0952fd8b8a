package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	Format vk.Format
}

// ImageCreate allocates a 2D image with bound device memory and, if requested, a view over it.
func ImageCreate(
	context *VulkanContext,
	width, height uint32,
	format vk.Format,
	tiling vk.ImageTiling,
	usage vk.ImageUsageFlags,
	memoryFlags vk.MemoryPropertyFlags,
	createView bool,
	viewAspectFlags vk.ImageAspectFlags,
) (*VulkanImage, error) {
	image := &VulkanImage{
		Width:  width,
		Height: height,
		Format: format,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	err := context.lockPool.SafeCall(ImageManagement, func() error {
		if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &image.Handle); res != vk.Success {
			return resultError(res, "vkCreateImage")
		}

		var memoryRequirements vk.MemoryRequirements
		vk.GetImageMemoryRequirements(context.Device.LogicalDevice, image.Handle, &memoryRequirements)
		memoryRequirements.Deref()

		memoryType := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(memoryFlags))
		if memoryType == -1 {
			return errors.New("required memory type not found, image not valid")
		}

		allocateInfo := vk.MemoryAllocateInfo{
			SType:           vk.StructureTypeMemoryAllocateInfo,
			AllocationSize:  memoryRequirements.Size,
			MemoryTypeIndex: uint32(memoryType),
		}
		if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &image.Memory); res != vk.Success {
			return resultError(res, "vkAllocateMemory")
		}

		if res := vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, image.Memory, 0); res != vk.Success {
			return resultError(res, "vkBindImageMemory")
		}
		return nil
	})
	if err != nil {
		image.Destroy(context)
		return nil, err
	}

	if createView {
		view, err := createImageView(context, image.Handle, format, viewAspectFlags)
		if err != nil {
			image.Destroy(context)
			return nil, err
		}
		image.View = view
	}
	return image, nil
}

func createImageView(context *VulkanContext, image vk.Image, format vk.Format, aspectFlags vk.ImageAspectFlags) (vk.ImageView, error) {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view); res != vk.Success {
		return vk.NullImageView, resultError(res, "vkCreateImageView")
	}
	return view, nil
}

func (image *VulkanImage) Destroy(context *VulkanContext) {
	_ = context.lockPool.SafeCall(ImageManagement, func() error {
		if image.View != vk.NullImageView {
			vk.DestroyImageView(context.Device.LogicalDevice, image.View, context.Allocator)
			image.View = vk.NullImageView
		}
		if image.Memory != vk.NullDeviceMemory {
			vk.FreeMemory(context.Device.LogicalDevice, image.Memory, context.Allocator)
			image.Memory = vk.NullDeviceMemory
		}
		if image.Handle != vk.NullImage {
			vk.DestroyImage(context.Device.LogicalDevice, image.Handle, context.Allocator)
			image.Handle = vk.NullImage
		}
		return nil
	})
}
