package metadata

type ShaderStage uint32

const (
	ShaderStageVertex   ShaderStage = 0x00000001
	ShaderStageFragment ShaderStage = 0x00000010
)

type FaceCullMode int

const (
	FaceCullModeNone FaceCullMode = iota
	FaceCullModeFront
	FaceCullModeBack
	FaceCullModeFrontAndBack
)

/** @brief Fixed-function and layout settings for a graphics pipeline. */
type PipelineConfig struct {
	Name string
	/** @brief Paths to compiled SPIR-V binaries. */
	VertexShaderPath   string
	FragmentShaderPath string
	/** @brief When false the pipeline declares no vertex bindings; the shader generates positions. */
	UseVertexInput bool
	CullMode       FaceCullMode
	IsWireframe    bool
	DepthTest      bool
	DepthWrite     bool
	AlphaBlending  bool
	/** @brief Size in bytes of the push constant block, zero for none. */
	PushConstantSize   uint32
	PushConstantStages ShaderStage
}

// DefaultPipelineConfig is a filled triangle list with depth testing,
// no culling and no blending. Viewport and scissor are dynamic.
func DefaultPipelineConfig(name, vertexShader, fragmentShader string) *PipelineConfig {
	return &PipelineConfig{
		Name:               name,
		VertexShaderPath:   vertexShader,
		FragmentShaderPath: fragmentShader,
		UseVertexInput:     true,
		CullMode:           FaceCullModeNone,
		DepthTest:          true,
		DepthWrite:         true,
	}
}

// EnableAlphaBlending blends src alpha over one-minus-src alpha.
func (c *PipelineConfig) EnableAlphaBlending() *PipelineConfig {
	c.AlphaBlending = true
	return c
}
