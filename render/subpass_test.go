package render

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lumen/gpu"
)

func newTestState(t *testing.T) SubpassState {
	t.Helper()
	ctx := gpu.NewRenderContext(nil, 1, 0, nil)
	vert := NewShaderSource("@vertex fn vs_main() {}")
	frag := NewShaderSource("@fragment fn fs_main() {}")
	return NewSubpassState(ctx, &vert, &frag)
}

func TestShaderSourceMoveOnly(t *testing.T) {
	src := NewShaderSource("code")
	moved := src.Move()

	assert.False(t, src.Valid())
	assert.True(t, moved.Valid())
	assert.Equal(t, "code", moved.Code())

	assert.Panics(t, func() { src.Code() })
	assert.Panics(t, func() { src.Move() })
}

func TestSubpassStateTakesShaderOwnership(t *testing.T) {
	s := newTestState(t)

	assert.True(t, s.VertexShader().Valid())
	assert.True(t, s.FragmentShader().Valid())
	assert.Equal(t, "@vertex fn vs_main() {}", s.VertexShader().Code())
	assert.Equal(t, "@fragment fn fs_main() {}", s.FragmentShader().Code())
	assert.NotEmpty(t, s.ID())
}

func TestSubpassStateAttachmentDefaults(t *testing.T) {
	s := newTestState(t)

	assert.Empty(t, s.InputAttachments())
	assert.Equal(t, []uint32{0}, s.OutputAttachments())
	assert.False(t, s.UseDynamicResources())
}

func TestSubpassStateAttachmentLists(t *testing.T) {
	s := newTestState(t)

	input := []uint32{1, 2, 2} // duplicates pass through unchanged
	s.SetInputAttachments(input)
	assert.Equal(t, []uint32{1, 2, 2}, s.InputAttachments())

	// The subpass keeps its own copy of the list.
	input[0] = 9
	assert.Equal(t, []uint32{1, 2, 2}, s.InputAttachments())

	s.SetOutputAttachments([]uint32{3, 0})
	assert.Equal(t, []uint32{3, 0}, s.OutputAttachments())

	s.SetUseDynamicResources(true)
	assert.True(t, s.UseDynamicResources())
}

func TestUpdateRenderTargetAttachments(t *testing.T) {
	s := newTestState(t)
	s.SetOutputAttachments([]uint32{2, 1})

	target := NewRenderTarget(640, 480, make([]Attachment, 3))
	s.UpdateRenderTargetAttachments(target)
	assert.Equal(t, []uint32{2, 1}, target.OutputAttachments())
}

func TestAddDefinitionsAndPreamble(t *testing.T) {
	s := newTestState(t)

	var variant ShaderVariant
	s.AddDefinitions(&variant, LightTypeDefinitions)
	s.AddDefinitions(&variant, []string{"MAX_LIGHT_COUNT 8", "HAS_SHADOWS"})

	require.Len(t, variant.Definitions(), 5)
	preamble := variant.Preamble()
	assert.Contains(t, preamble, "const DIRECTIONAL_LIGHT = 0;\n")
	assert.Contains(t, preamble, "const POINT_LIGHT = 1;\n")
	assert.Contains(t, preamble, "const SPOT_LIGHT = 2;\n")
	assert.Contains(t, preamble, "const MAX_LIGHT_COUNT = 8;\n")
	assert.Contains(t, preamble, "const HAS_SHADOWS = 1;\n")
}

func TestSubpassColorTargetsFollowOutputs(t *testing.T) {
	s := newTestState(t)

	targets := s.colorTargets(wgpu.TextureFormatBGRA8Unorm)
	require.Len(t, targets, 1)
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, targets[0].Format)

	// A G-buffer fill stage declares several outputs with their own formats;
	// outputs without one compile against the surface format.
	s.SetOutputAttachments([]uint32{0, 1, 2})
	s.SetOutputFormats([]wgpu.TextureFormat{
		wgpu.TextureFormatRGBA16Float,
		wgpu.TextureFormatRGBA8Unorm,
	})

	targets = s.colorTargets(wgpu.TextureFormatBGRA8Unorm)
	require.Len(t, targets, 3)
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, targets[0].Format)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, targets[1].Format)
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, targets[2].Format)
}

func TestRenderTargetAttachmentIndexing(t *testing.T) {
	target := NewRenderTarget(320, 200, make([]Attachment, 2))

	assert.NotNil(t, target.Attachment(1))
	assert.Panics(t, func() { target.Attachment(2) })
}
