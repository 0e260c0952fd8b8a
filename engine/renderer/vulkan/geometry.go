package vulkan

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// VulkanGeometry owns device-local vertex and, optionally, index buffers.
type VulkanGeometry struct {
	VertexBuffer *VulkanBuffer
	VertexCount  uint32
	IndexBuffer  *VulkanBuffer
	IndexCount   uint32
}

func NewGeometry(context *VulkanContext, vertices []metadata.Vertex, indices []uint32) (*VulkanGeometry, error) {
	if len(vertices) < 3 {
		return nil, core.Precondition("geometry needs at least 3 vertices, got %d", len(vertices))
	}

	var vertexData bytes.Buffer
	if err := binary.Write(&vertexData, binary.NativeEndian, vertices); err != nil {
		return nil, errors.Wrap(err, "failed to encode vertices")
	}
	vertexBuffer, err := uploadDeviceLocal(context, vertexData.Bytes(), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to upload vertex buffer")
	}
	geometry := &VulkanGeometry{
		VertexBuffer: vertexBuffer,
		VertexCount:  uint32(len(vertices)),
	}

	if len(indices) > 0 {
		var indexData bytes.Buffer
		if err := binary.Write(&indexData, binary.NativeEndian, indices); err != nil {
			geometry.Destroy()
			return nil, errors.Wrap(err, "failed to encode indices")
		}
		indexBuffer, err := uploadDeviceLocal(context, indexData.Bytes(), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
		if err != nil {
			geometry.Destroy()
			return nil, errors.Wrap(err, "failed to upload index buffer")
		}
		geometry.IndexBuffer = indexBuffer
		geometry.IndexCount = uint32(len(indices))
	}
	return geometry, nil
}

func (g *VulkanGeometry) Bind(buffer metadata.CommandBuffer) {
	cb, ok := buffer.(*VulkanCommandBuffer)
	if !ok {
		core.LogError("cannot bind geometry on a %T command buffer", buffer)
		return
	}
	vk.CmdBindVertexBuffers(cb.Handle, 0, 1, []vk.Buffer{g.VertexBuffer.Handle}, []vk.DeviceSize{0})
	if g.IndexBuffer != nil {
		vk.CmdBindIndexBuffer(cb.Handle, g.IndexBuffer.Handle, 0, vk.IndexTypeUint32)
	}
}

func (g *VulkanGeometry) Draw(buffer metadata.CommandBuffer) {
	if g.IndexBuffer != nil {
		buffer.DrawIndexed(g.IndexCount, 1, 0, 0, 0)
		return
	}
	buffer.Draw(g.VertexCount, 1, 0, 0)
}

func (g *VulkanGeometry) Destroy() {
	if g.IndexBuffer != nil {
		g.IndexBuffer.Destroy()
		g.IndexBuffer = nil
	}
	if g.VertexBuffer != nil {
		g.VertexBuffer.Destroy()
		g.VertexBuffer = nil
	}
}
