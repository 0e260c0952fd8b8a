package renderer

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// GlobalUniforms keeps one uniform buffer and one descriptor set per frame slot.
// A slot is only written while the GPU is done with its previous frame.
type GlobalUniforms struct {
	device  metadata.Device
	buffers []metadata.UniformBuffer
	sets    []metadata.DescriptorSet
}

func NewGlobalUniforms(device metadata.Device, slots uint32) (*GlobalUniforms, error) {
	g := &GlobalUniforms{device: device}
	for i := uint32(0); i < slots; i++ {
		buffer, err := device.CreateUniformBuffer(metadata.GlobalUboSize)
		if err != nil {
			g.Destroy()
			return nil, errors.Wrapf(err, "failed to create global uniform buffer %d", i)
		}
		g.buffers = append(g.buffers, buffer)

		set, err := device.AllocateGlobalDescriptorSet(buffer)
		if err != nil {
			g.Destroy()
			return nil, errors.Wrapf(err, "failed to allocate global descriptor set %d", i)
		}
		g.sets = append(g.sets, set)
	}
	return g, nil
}

// Write encodes ubo into the slot's buffer and flushes it to the device.
func (g *GlobalUniforms) Write(slot uint32, ubo *metadata.GlobalUbo) error {
	if int(slot) >= len(g.buffers) {
		return core.Precondition("uniform slot %d out of range [0, %d)", slot, len(g.buffers))
	}
	buffer := g.buffers[slot]
	if err := buffer.Write(ubo.Bytes()); err != nil {
		return errors.Wrapf(err, "failed to write global uniforms for slot %d", slot)
	}
	if err := buffer.Flush(); err != nil {
		return errors.Wrapf(err, "failed to flush global uniforms for slot %d", slot)
	}
	return nil
}

func (g *GlobalUniforms) DescriptorSet(slot uint32) metadata.DescriptorSet {
	return g.sets[slot]
}

// Destroy releases the buffers. Descriptor sets go away with their pool.
func (g *GlobalUniforms) Destroy() {
	for _, b := range g.buffers {
		b.Destroy()
	}
	g.buffers = nil
	g.sets = nil
}
