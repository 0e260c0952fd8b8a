package rendertest

import (
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type Call struct {
	Name string
	Args []interface{}
}

type PushConstant struct {
	Pipeline metadata.Pipeline
	Stages   metadata.ShaderStage
	Data     []byte
}

// CommandBuffer records every command in order.
type CommandBuffer struct {
	ID        int
	Recording bool
	Calls     []Call
	Pushes    []PushConstant
	BeginErr  error
	EndErr    error
}

func (cb *CommandBuffer) Record(name string, args ...interface{}) {
	cb.Calls = append(cb.Calls, Call{Name: name, Args: args})
}

// Names returns the recorded command names in order.
func (cb *CommandBuffer) Names() []string {
	names := make([]string, 0, len(cb.Calls))
	for _, c := range cb.Calls {
		names = append(names, c.Name)
	}
	return names
}

func (cb *CommandBuffer) Count(name string) int {
	n := 0
	for _, c := range cb.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Find returns the recorded calls with the given name.
func (cb *CommandBuffer) Find(name string) []Call {
	var calls []Call
	for _, c := range cb.Calls {
		if c.Name == name {
			calls = append(calls, c)
		}
	}
	return calls
}

func (cb *CommandBuffer) Reset() {
	cb.Calls = nil
	cb.Pushes = nil
}

func (cb *CommandBuffer) Begin() error {
	if cb.BeginErr != nil {
		return cb.BeginErr
	}
	cb.Reset()
	cb.Recording = true
	cb.Record("Begin")
	return nil
}

func (cb *CommandBuffer) End() error {
	if cb.EndErr != nil {
		return cb.EndErr
	}
	cb.Recording = false
	cb.Record("End")
	return nil
}

func (cb *CommandBuffer) BeginRenderPass(target metadata.Swapchain, imageIndex uint32, clear metadata.ClearValues) {
	cb.Record("BeginRenderPass", target, imageIndex, clear)
}

func (cb *CommandBuffer) EndRenderPass() {
	cb.Record("EndRenderPass")
}

func (cb *CommandBuffer) SetViewport(viewport metadata.Viewport) {
	cb.Record("SetViewport", viewport)
}

func (cb *CommandBuffer) SetScissor(scissor metadata.Rect) {
	cb.Record("SetScissor", scissor)
}

func (cb *CommandBuffer) BindPipeline(pipeline metadata.Pipeline) {
	cb.Record("BindPipeline", pipeline)
}

func (cb *CommandBuffer) BindDescriptorSet(pipeline metadata.Pipeline, set metadata.DescriptorSet) {
	cb.Record("BindDescriptorSet", pipeline, set)
}

func (cb *CommandBuffer) PushConstants(pipeline metadata.Pipeline, stages metadata.ShaderStage, data []byte) {
	cb.Record("PushConstants", pipeline, stages, len(data))
	cb.Pushes = append(cb.Pushes, PushConstant{
		Pipeline: pipeline,
		Stages:   stages,
		Data:     append([]byte(nil), data...),
	})
}

func (cb *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	cb.Record("Draw", vertexCount, instanceCount, firstVertex, firstInstance)
}

func (cb *CommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	cb.Record("DrawIndexed", indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}
