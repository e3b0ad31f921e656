package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"

	"github.com/gekko3d/lumen/gpu"
)

// CommandRecorder is the sink a subpass records its drawing work into.
// Subpasses only write into it; they never inspect recorded state.
type CommandRecorder interface {
	SetPipeline(pipeline *wgpu.RenderPipeline)
	BindUniform(group, binding uint32, alloc gpu.Allocation)
	SetRebindEachDraw(rebind bool)
	Draw(vertexCount, instanceCount uint32)
}

// DepthStencilState is the per-subpass depth/stencil configuration applied
// when the subpass compiles its pipeline state.
type DepthStencilState struct {
	DepthTestEnable  bool
	DepthWriteEnable bool
	DepthCompare     wgpu.CompareFunction
}

func NewDepthStencilState() DepthStencilState {
	return DepthStencilState{
		DepthTestEnable:  true,
		DepthWriteEnable: true,
		DepthCompare:     wgpu.CompareFunctionLess,
	}
}

// Subpass is one drawing stage of a RenderPipeline. Prepare runs once before
// the render loop; Draw records the subpass's work each frame. Every
// concrete subpass embeds SubpassState, which carries the shared contract.
type Subpass interface {
	Prepare() error
	Draw(rec CommandRecorder)

	state() *SubpassState
}

// SubpassState is the state every subpass owns: its two shader stage
// sources, depth/stencil configuration, attachment index lists and the
// dynamic-resources mode. Concrete subpasses embed it by value.
type SubpassState struct {
	ctx *gpu.RenderContext
	id  string

	vertexShader   ShaderSource
	fragmentShader ShaderSource

	depthStencil DepthStencilState

	// Default to no input attachments.
	inputAttachments []uint32
	// Default to the swapchain output attachment.
	outputAttachments []uint32
	// Color target format per output attachment. Outputs without a
	// declared format compile against the surface format.
	outputFormats []wgpu.TextureFormat

	useDynamicResources bool
}

// NewSubpassState takes ownership of both shader sources; the passed-in
// values are moved from and become invalid.
func NewSubpassState(ctx *gpu.RenderContext, vertexShader, fragmentShader *ShaderSource) SubpassState {
	return SubpassState{
		ctx:               ctx,
		id:                uuid.NewString(),
		vertexShader:      vertexShader.Move(),
		fragmentShader:    fragmentShader.Move(),
		depthStencil:      NewDepthStencilState(),
		outputAttachments: []uint32{0},
	}
}

func (s *SubpassState) state() *SubpassState { return s }

func (s *SubpassState) ID() string { return s.id }

func (s *SubpassState) RenderContext() *gpu.RenderContext { return s.ctx }

// VertexShader returns the vertex stage source. Read-only after construction.
func (s *SubpassState) VertexShader() *ShaderSource { return &s.vertexShader }

// FragmentShader returns the fragment stage source. Read-only after construction.
func (s *SubpassState) FragmentShader() *ShaderSource { return &s.fragmentShader }

// DepthStencilState returns a mutable reference to the subpass's
// depth/stencil configuration.
func (s *SubpassState) DepthStencilState() *DepthStencilState { return &s.depthStencil }

func (s *SubpassState) InputAttachments() []uint32 { return s.inputAttachments }

// SetInputAttachments replaces the input attachment index list. Order is
// binding slot order; duplicates are passed through unchanged.
func (s *SubpassState) SetInputAttachments(input []uint32) {
	s.inputAttachments = append([]uint32(nil), input...)
}

func (s *SubpassState) OutputAttachments() []uint32 { return s.outputAttachments }

// SetOutputAttachments replaces the output attachment index list. Order is
// color attachment order; duplicates are passed through unchanged.
func (s *SubpassState) SetOutputAttachments(output []uint32) {
	s.outputAttachments = append([]uint32(nil), output...)
}

func (s *SubpassState) OutputFormats() []wgpu.TextureFormat { return s.outputFormats }

// SetOutputFormats declares the color target format of each output
// attachment, in output attachment order.
func (s *SubpassState) SetOutputFormats(formats []wgpu.TextureFormat) {
	s.outputFormats = append([]wgpu.TextureFormat(nil), formats...)
}

func (s *SubpassState) UseDynamicResources() bool { return s.useDynamicResources }

func (s *SubpassState) SetUseDynamicResources(dynamic bool) {
	s.useDynamicResources = dynamic
}

// UpdateRenderTargetAttachments pushes this subpass's stored output
// attachment list into the render target. The owning pipeline calls this
// before proceeding with the subpass's draw.
func (s *SubpassState) UpdateRenderTargetAttachments(target *RenderTarget) {
	target.SetOutputAttachments(s.outputAttachments)
}

// AddDefinitions appends definition strings to a shader variant. Definition
// syntax is not validated here; malformed strings surface as a shader
// compilation failure downstream.
func (s *SubpassState) AddDefinitions(variant *ShaderVariant, definitions []string) {
	for _, definition := range definitions {
		variant.AddDefinition(definition)
	}
}

// colorTargets builds one color target per output attachment, falling back
// to the surface format where no format was declared.
func (s *SubpassState) colorTargets(surfaceFormat wgpu.TextureFormat) []wgpu.ColorTargetState {
	targets := make([]wgpu.ColorTargetState, len(s.outputAttachments))
	for i := range targets {
		format := surfaceFormat
		if i < len(s.outputFormats) {
			format = s.outputFormats[i]
		}
		targets[i] = wgpu.ColorTargetState{
			Format:    format,
			WriteMask: wgpu.ColorWriteMaskAll,
		}
	}
	return targets
}

// compilePipeline builds the wgpu pipeline state for this subpass from its
// shader stages and the variant's preamble. Returns nil on host-memory
// contexts, where no device is available.
func (s *SubpassState) compilePipeline(label string, variant *ShaderVariant) (*wgpu.RenderPipeline, error) {
	state := s.ctx.State()
	if state == nil {
		return nil, nil
	}
	device := state.Device()

	code := variant.Preamble() + s.vertexShader.Code() + "\n" + s.fragmentShader.Code()
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("subpass %s: shader module: %w", s.id, err)
	}
	defer shader.Release()

	var depthStencil *wgpu.DepthStencilState
	if s.depthStencil.DepthTestEnable {
		depthStencil = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: s.depthStencil.DepthWriteEnable,
			DepthCompare:      s.depthStencil.DepthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: label,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets:    s.colorTargets(state.SurfaceFormat()),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: depthStencil,
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("subpass %s: pipeline: %w", s.id, err)
	}
	return pipeline, nil
}
