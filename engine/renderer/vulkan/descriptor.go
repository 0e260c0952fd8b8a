package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/lumen/engine/core"
)

// VulkanDescriptorSet is a set allocated from the context pool with the global layout.
type VulkanDescriptorSet struct {
	Handle vk.DescriptorSet
	Buffer *VulkanUniformBuffer
}

// DescriptorSetLayoutBuilder collects bindings, one descriptor type per binding number.
type DescriptorSetLayoutBuilder struct {
	bindings map[uint32]vk.DescriptorSetLayoutBinding
	order    []uint32
}

func NewDescriptorSetLayoutBuilder() *DescriptorSetLayoutBuilder {
	return &DescriptorSetLayoutBuilder{bindings: make(map[uint32]vk.DescriptorSetLayoutBinding)}
}

func (b *DescriptorSetLayoutBuilder) AddBinding(binding uint32, descriptorType vk.DescriptorType, stages vk.ShaderStageFlags, count uint32) *DescriptorSetLayoutBuilder {
	if _, ok := b.bindings[binding]; !ok {
		b.order = append(b.order, binding)
	}
	b.bindings[binding] = vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  descriptorType,
		DescriptorCount: count,
		StageFlags:      stages,
	}
	return b
}

// Binding reports the declared binding, used by writers to check their type.
func (b *DescriptorSetLayoutBuilder) Binding(binding uint32) (vk.DescriptorSetLayoutBinding, bool) {
	l, ok := b.bindings[binding]
	return l, ok
}

func (b *DescriptorSetLayoutBuilder) Build(context *VulkanContext) (vk.DescriptorSetLayout, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, 0, len(b.order))
	for _, n := range b.order {
		bindings = append(bindings, b.bindings[n])
	}

	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutInfo, context.Allocator, &layout); res != vk.Success {
		return vk.NullDescriptorSetLayout, resultError(res, "vkCreateDescriptorSetLayout")
	}
	return layout, nil
}

// DescriptorPoolBuilder sizes a pool per descriptor type.
type DescriptorPoolBuilder struct {
	poolSizes []vk.DescriptorPoolSize
	maxSets   uint32
	flags     vk.DescriptorPoolCreateFlags
}

func NewDescriptorPoolBuilder() *DescriptorPoolBuilder {
	return &DescriptorPoolBuilder{maxSets: 1000}
}

func (b *DescriptorPoolBuilder) AddPoolSize(descriptorType vk.DescriptorType, count uint32) *DescriptorPoolBuilder {
	b.poolSizes = append(b.poolSizes, vk.DescriptorPoolSize{
		Type:            descriptorType,
		DescriptorCount: count,
	})
	return b
}

func (b *DescriptorPoolBuilder) SetMaxSets(count uint32) *DescriptorPoolBuilder {
	b.maxSets = count
	return b
}

func (b *DescriptorPoolBuilder) SetPoolFlags(flags vk.DescriptorPoolCreateFlags) *DescriptorPoolBuilder {
	b.flags = flags
	return b
}

func (b *DescriptorPoolBuilder) Build(context *VulkanContext) (vk.DescriptorPool, error) {
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         b.flags,
		MaxSets:       b.maxSets,
		PoolSizeCount: uint32(len(b.poolSizes)),
		PPoolSizes:    b.poolSizes,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		return vk.NullDescriptorPool, resultError(res, "vkCreateDescriptorPool")
	}
	return pool, nil
}

// DescriptorWriter records buffer writes against a layout and applies them to one set.
type DescriptorWriter struct {
	layout *DescriptorSetLayoutBuilder
	writes []vk.WriteDescriptorSet
}

func NewDescriptorWriter(layout *DescriptorSetLayoutBuilder) *DescriptorWriter {
	return &DescriptorWriter{layout: layout}
}

// WriteBuffer points binding at the whole of buffer. The binding must be declared
// in the layout with a single descriptor.
func (w *DescriptorWriter) WriteBuffer(binding uint32, buffer *VulkanBuffer) error {
	description, ok := w.layout.Binding(binding)
	if !ok {
		return core.Precondition("layout does not contain binding %d", binding)
	}
	if description.DescriptorCount != 1 {
		return core.Precondition("binding %d expects %d descriptors, single buffer given", binding, description.DescriptorCount)
	}
	w.writes = append(w.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorType:  description.DescriptorType,
		DescriptorCount: 1,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer.Handle,
			Offset: 0,
			Range:  vk.DeviceSize(buffer.TotalSize),
		}},
	})
	return nil
}

// Overwrite applies every recorded write to set.
func (w *DescriptorWriter) Overwrite(context *VulkanContext, set vk.DescriptorSet) {
	for i := range w.writes {
		w.writes[i].DstSet = set
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(w.writes)), w.writes, 0, nil)
}

// globalLayout declares binding 0 as a uniform buffer visible to all graphics stages.
func globalLayout() *DescriptorSetLayoutBuilder {
	return NewDescriptorSetLayoutBuilder().
		AddBinding(0, vk.DescriptorTypeUniformBuffer, vk.ShaderStageFlags(vk.ShaderStageAllGraphics), 1)
}

func createGlobalSetLayout(context *VulkanContext) error {
	layout, err := globalLayout().Build(context)
	if err != nil {
		return err
	}
	context.GlobalSetLayout = layout
	return nil
}

func createDescriptorPool(context *VulkanContext, maxSets uint32) error {
	pool, err := NewDescriptorPoolBuilder().
		SetMaxSets(maxSets).
		SetPoolFlags(vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit)).
		AddPoolSize(vk.DescriptorTypeUniformBuffer, maxSets).
		Build(context)
	if err != nil {
		return err
	}
	context.DescriptorPool = pool
	return nil
}

func destroyDescriptors(context *VulkanContext) {
	if context.DescriptorPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, context.DescriptorPool, context.Allocator)
		context.DescriptorPool = vk.NullDescriptorPool
	}
	if context.GlobalSetLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, context.GlobalSetLayout, context.Allocator)
		context.GlobalSetLayout = vk.NullDescriptorSetLayout
	}
}

// AllocateGlobalSet allocates a set and points binding 0 at the whole of buffer.
func AllocateGlobalSet(context *VulkanContext, buffer *VulkanUniformBuffer) (*VulkanDescriptorSet, error) {
	writer := NewDescriptorWriter(globalLayout())
	if err := writer.WriteBuffer(0, buffer.VulkanBuffer); err != nil {
		return nil, err
	}

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     context.DescriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{context.GlobalSetLayout},
	}

	set := &VulkanDescriptorSet{Buffer: buffer}
	err := context.lockPool.SafeCall(DescriptorManagement, func() error {
		if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &set.Handle); res != vk.Success {
			return resultError(res, "vkAllocateDescriptorSets")
		}
		writer.Overwrite(context, set.Handle)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}
