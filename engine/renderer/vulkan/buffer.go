package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type VulkanBuffer struct {
	context *VulkanContext

	Handle      vk.Buffer
	Memory      vk.DeviceMemory
	TotalSize   uint64
	Usage       vk.BufferUsageFlags
	MemoryFlags vk.MemoryPropertyFlags

	mapped unsafe.Pointer
}

func NewBuffer(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	if size == 0 {
		return nil, errors.New("cannot create a zero sized buffer")
	}
	buffer := &VulkanBuffer{
		context:     context,
		TotalSize:   size,
		Usage:       usage,
		MemoryFlags: memoryFlags,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive, // only used in one queue.
	}

	err := context.lockPool.SafeCall(BufferManagement, func() error {
		if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &buffer.Handle); res != vk.Success {
			return resultError(res, "vkCreateBuffer")
		}

		var requirements vk.MemoryRequirements
		vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &requirements)
		requirements.Deref()

		memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(memoryFlags))
		if memoryIndex == -1 {
			return errors.New("unable to create buffer: required memory type index not found")
		}

		allocateInfo := vk.MemoryAllocateInfo{
			SType:           vk.StructureTypeMemoryAllocateInfo,
			AllocationSize:  requirements.Size,
			MemoryTypeIndex: uint32(memoryIndex),
		}
		if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &buffer.Memory); res != vk.Success {
			return resultError(res, "vkAllocateMemory")
		}

		if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
			return resultError(res, "vkBindBufferMemory")
		}
		return nil
	})
	if err != nil {
		buffer.Destroy()
		return nil, err
	}
	return buffer, nil
}

func (b *VulkanBuffer) Destroy() {
	_ = b.context.lockPool.SafeCall(BufferManagement, func() error {
		if b.mapped != nil {
			vk.UnmapMemory(b.context.Device.LogicalDevice, b.Memory)
			b.mapped = nil
		}
		if b.Memory != vk.NullDeviceMemory {
			vk.FreeMemory(b.context.Device.LogicalDevice, b.Memory, b.context.Allocator)
			b.Memory = vk.NullDeviceMemory
		}
		if b.Handle != vk.NullBuffer {
			vk.DestroyBuffer(b.context.Device.LogicalDevice, b.Handle, b.context.Allocator)
			b.Handle = vk.NullBuffer
		}
		return nil
	})
	b.TotalSize = 0
}

// Map keeps the whole buffer mapped until Destroy.
func (b *VulkanBuffer) Map() error {
	if b.mapped != nil {
		return nil
	}
	var data unsafe.Pointer
	if res := vk.MapMemory(b.context.Device.LogicalDevice, b.Memory, 0, vk.DeviceSize(b.TotalSize), 0, &data); res != vk.Success {
		return resultError(res, "vkMapMemory")
	}
	b.mapped = data
	return nil
}

// LoadData copies data into the mapped memory at offset.
func (b *VulkanBuffer) LoadData(offset uint64, data []byte) error {
	if b.mapped == nil {
		return errors.New("buffer is not mapped")
	}
	if offset+uint64(len(data)) > b.TotalSize {
		return errors.Newf("write of %d bytes at %d overflows buffer of %d bytes", len(data), offset, b.TotalSize)
	}
	vk.Memcopy(unsafe.Add(b.mapped, offset), data)
	return nil
}

// Flush makes host writes visible to the device. The range is widened to the
// device's non-coherent atom size.
func (b *VulkanBuffer) Flush(offset, size uint64) error {
	if b.MemoryFlags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit) != 0 {
		return nil
	}
	atom := uint64(b.context.Device.Properties.Limits.NonCoherentAtomSize)
	aligned := metadata.GetAlignedRange(offset, size, atom)
	if aligned.Offset+aligned.Size > b.TotalSize {
		aligned.Size = uint64(vk.WholeSize)
	}
	memoryRange := vk.MappedMemoryRange{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: b.Memory,
		Offset: vk.DeviceSize(aligned.Offset),
		Size:   vk.DeviceSize(aligned.Size),
	}
	if res := vk.FlushMappedMemoryRanges(b.context.Device.LogicalDevice, 1, []vk.MappedMemoryRange{memoryRange}); res != vk.Success {
		return resultError(res, "vkFlushMappedMemoryRanges")
	}
	return nil
}

// CopyTo records and waits for a transfer of size bytes into dest.
func (b *VulkanBuffer) CopyTo(dest *VulkanBuffer, size uint64) error {
	device := b.context.Device
	cb, err := AllocateAndBeginSingleUse(b.context, device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	vk.CmdCopyBuffer(cb.Handle, b.Handle, dest.Handle, 1, []vk.BufferCopy{{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}})
	return cb.EndSingleUse(device.GraphicsQueue, uint32(device.GraphicsQueueIndex))
}

// VulkanUniformBuffer is a persistently mapped host-visible buffer.
type VulkanUniformBuffer struct {
	*VulkanBuffer
}

func NewUniformBuffer(context *VulkanContext, size uint64) (*VulkanUniformBuffer, error) {
	buffer, err := NewBuffer(
		context,
		size,
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit))
	if err != nil {
		return nil, err
	}
	if err := buffer.Map(); err != nil {
		buffer.Destroy()
		return nil, err
	}
	return &VulkanUniformBuffer{VulkanBuffer: buffer}, nil
}

func (u *VulkanUniformBuffer) Size() uint64 {
	return u.TotalSize
}

func (u *VulkanUniformBuffer) Write(data []byte) error {
	return u.LoadData(0, data)
}

func (u *VulkanUniformBuffer) Flush() error {
	return u.VulkanBuffer.Flush(0, u.TotalSize)
}

// uploadDeviceLocal stages data through a host-visible buffer into a new device-local one.
func uploadDeviceLocal(context *VulkanContext, data []byte, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	size := uint64(len(data))
	staging, err := NewBuffer(
		context,
		size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create staging buffer")
	}
	defer staging.Destroy()

	if err := staging.Map(); err != nil {
		return nil, err
	}
	if err := staging.LoadData(0, data); err != nil {
		return nil, err
	}

	buffer, err := NewBuffer(
		context,
		size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}
	if err := staging.CopyTo(buffer, size); err != nil {
		buffer.Destroy()
		return nil, errors.Wrap(err, "failed to copy staging buffer")
	}
	return buffer, nil
}
