package rendertest

import (
	"github.com/cockroachdb/errors"

	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// Device creates fakes and scripts the results their swapchains report.
// Empty result queues report RESULT_SUCCESS.
type Device struct {
	ImageCount int
	Format     int

	AcquireResults []metadata.Result
	PresentResults []metadata.Result
	AcquireErr     error
	PresentErr     error
	CreateErr      error

	Swapchains     []*Swapchain
	CommandBuffers []*CommandBuffer
	FreedBuffers   int
	Pipelines      []*Pipeline
	UniformBuffers []*UniformBuffer
	Geometries     []*Geometry
	WaitIdleCalls  int
}

func NewDevice() *Device {
	return &Device{ImageCount: 3}
}

func (d *Device) popAcquire() (metadata.Result, error) {
	if d.AcquireErr != nil {
		return metadata.RESULT_ERROR, d.AcquireErr
	}
	if len(d.AcquireResults) == 0 {
		return metadata.RESULT_SUCCESS, nil
	}
	r := d.AcquireResults[0]
	d.AcquireResults = d.AcquireResults[1:]
	return r, nil
}

func (d *Device) popPresent() (metadata.Result, error) {
	if d.PresentErr != nil {
		return metadata.RESULT_ERROR, d.PresentErr
	}
	if len(d.PresentResults) == 0 {
		return metadata.RESULT_SUCCESS, nil
	}
	r := d.PresentResults[0]
	d.PresentResults = d.PresentResults[1:]
	return r, nil
}

// Current returns the most recently created swapchain.
func (d *Device) Current() *Swapchain {
	if len(d.Swapchains) == 0 {
		return nil
	}
	return d.Swapchains[len(d.Swapchains)-1]
}

func (d *Device) WaitIdle() error {
	d.WaitIdleCalls++
	return nil
}

func (d *Device) CreateSwapchain(extent metadata.Extent, previous metadata.Swapchain) (metadata.Swapchain, error) {
	if d.CreateErr != nil {
		return nil, d.CreateErr
	}
	if extent.IsZero() {
		return nil, errors.Newf("cannot create a swapchain of extent %dx%d", extent.Width, extent.Height)
	}
	s := &Swapchain{
		ID:       len(d.Swapchains),
		Format:   d.Format,
		Images:   d.ImageCount,
		Size:     extent,
		device:   d,
		Previous: previous,
	}
	d.Swapchains = append(d.Swapchains, s)
	return s, nil
}

func (d *Device) AllocateCommandBuffers(count int) ([]metadata.CommandBuffer, error) {
	buffers := make([]metadata.CommandBuffer, count)
	for i := range buffers {
		cb := &CommandBuffer{ID: len(d.CommandBuffers)}
		d.CommandBuffers = append(d.CommandBuffers, cb)
		buffers[i] = cb
	}
	return buffers, nil
}

func (d *Device) FreeCommandBuffers(buffers []metadata.CommandBuffer) {
	d.FreedBuffers += len(buffers)
}

func (d *Device) CreatePipeline(config *metadata.PipelineConfig, target metadata.Swapchain) (metadata.Pipeline, error) {
	p := &Pipeline{Config: *config}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CreateUniformBuffer(size uint64) (metadata.UniformBuffer, error) {
	u := &UniformBuffer{size: size}
	d.UniformBuffers = append(d.UniformBuffers, u)
	return u, nil
}

func (d *Device) AllocateGlobalDescriptorSet(buffer metadata.UniformBuffer) (metadata.DescriptorSet, error) {
	return &DescriptorSet{Buffer: buffer}, nil
}

func (d *Device) CreateGeometry(vertices []metadata.Vertex, indices []uint32) (metadata.Geometry, error) {
	g := &Geometry{VertexCount: uint32(len(vertices)), IndexCount: uint32(len(indices))}
	d.Geometries = append(d.Geometries, g)
	return g, nil
}

type Pipeline struct {
	Config    metadata.PipelineConfig
	Destroyed bool
}

func (p *Pipeline) Destroy() {
	p.Destroyed = true
}

type DescriptorSet struct {
	Buffer metadata.UniformBuffer
}

type UniformBuffer struct {
	size      uint64
	Data      []byte
	Writes    int
	Flushes   int
	Destroyed bool
}

func (u *UniformBuffer) Size() uint64 {
	return u.size
}

func (u *UniformBuffer) Write(data []byte) error {
	if uint64(len(data)) > u.size {
		return errors.Newf("write of %d bytes exceeds buffer size %d", len(data), u.size)
	}
	u.Data = append(u.Data[:0], data...)
	u.Writes++
	return nil
}

func (u *UniformBuffer) Flush() error {
	u.Flushes++
	return nil
}

func (u *UniformBuffer) Destroy() {
	u.Destroyed = true
}

type recorder interface {
	Record(name string, args ...interface{})
}

// Geometry draws indexed when it has indices.
type Geometry struct {
	VertexCount uint32
	IndexCount  uint32
	Destroyed   bool
}

func (g *Geometry) Bind(buffer metadata.CommandBuffer) {
	if r, ok := buffer.(recorder); ok {
		r.Record("BindGeometry", g)
	}
}

func (g *Geometry) Draw(buffer metadata.CommandBuffer) {
	if g.IndexCount > 0 {
		buffer.DrawIndexed(g.IndexCount, 1, 0, 0, 0)
		return
	}
	buffer.Draw(g.VertexCount, 1, 0, 0)
}

func (g *Geometry) Destroy() {
	g.Destroyed = true
}
