package render

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/lumen/core"
	"github.com/gekko3d/lumen/gpu"
)

type recordedBinding struct {
	group   uint32
	binding uint32
	alloc   gpu.Allocation
}

type recordedDraw struct {
	vertexCount   uint32
	instanceCount uint32
}

type fakeRecorder struct {
	pipelinesSet int
	rebindEach   bool
	bindings     []recordedBinding
	draws        []recordedDraw
}

func (r *fakeRecorder) SetPipeline(pipeline *wgpu.RenderPipeline) { r.pipelinesSet++ }

func (r *fakeRecorder) SetRebindEachDraw(rebind bool) { r.rebindEach = rebind }

func (r *fakeRecorder) BindUniform(group, binding uint32, alloc gpu.Allocation) {
	r.bindings = append(r.bindings, recordedBinding{group, binding, alloc})
}

func (r *fakeRecorder) Draw(vertexCount, instanceCount uint32) {
	r.draws = append(r.draws, recordedDraw{vertexCount, instanceCount})
}

func testScene() (*core.Scene, *core.Camera) {
	scene := core.NewScene()
	scene.AddLight(pointLight("a", mgl32.Vec3{1, 0, 0}, 2))
	scene.AddLight(spotLight("b", 0.2, 0.5))
	return scene, core.NewCamera(16.0 / 9.0)
}

func TestForwardSubpassDrawFlow(t *testing.T) {
	ctx := gpu.NewRenderContext(nil, 2, 0, nil)
	scene, camera := testScene()

	vert := NewShaderSource("vs")
	frag := NewShaderSource("fs")
	subpass := NewForwardSubpass(ctx, &vert, &frag, scene, camera)
	subpass.SetUseDynamicResources(true)

	pipeline := NewRenderPipeline("forward", core.NewNopLogger())
	pipeline.AddSubpass(subpass)
	require.NoError(t, pipeline.Prepare())

	target := NewRenderTarget(1280, 720, make([]Attachment, 1))
	rec := &fakeRecorder{}
	pipeline.Draw(rec, target)

	assert.Equal(t, []uint32{0}, target.OutputAttachments())
	assert.True(t, rec.rebindEach)

	require.Len(t, rec.bindings, 2)
	cam := rec.bindings[0]
	assert.Equal(t, uint32(0), cam.group)
	assert.Equal(t, uint32(0), cam.binding)
	assert.Equal(t, uint64(unsafe.Sizeof(cameraUniform{})), cam.alloc.Size())

	lights := rec.bindings[1]
	assert.Equal(t, uint32(0), lights.group)
	assert.Equal(t, uint32(1), lights.binding)
	assert.Equal(t, uint64(unsafe.Sizeof(ForwardLights{})), lights.alloc.Size())
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(lights.alloc.HostBytes()[:4]))

	assert.Equal(t, []recordedDraw{{3, 1}}, rec.draws)
}

func TestForwardSubpassPrepareDefinitions(t *testing.T) {
	ctx := gpu.NewRenderContext(nil, 1, 0, nil)
	scene, camera := testScene()

	vert := NewShaderSource("vs")
	frag := NewShaderSource("fs")
	subpass := NewForwardSubpass(ctx, &vert, &frag, scene, camera)
	require.NoError(t, subpass.Prepare())

	assert.Contains(t, subpass.variant.Definitions(), "MAX_LIGHT_COUNT 8")
	assert.Contains(t, subpass.variant.Definitions(), "SPOT_LIGHT 2")
}

func TestLightingSubpassGBufferWiring(t *testing.T) {
	ctx := gpu.NewRenderContext(nil, 1, 0, nil)
	scene, camera := testScene()

	vert := NewShaderSource("vs")
	frag := NewShaderSource("fs")
	subpass := NewLightingSubpass(ctx, &vert, &frag, scene, camera)

	assert.Equal(t, []uint32{1, 2, 3}, subpass.InputAttachments())
	assert.False(t, subpass.DepthStencilState().DepthTestEnable)
}

func TestLightingSubpassFixedLightCount(t *testing.T) {
	ctx := gpu.NewRenderContext(nil, 1, 0, nil)
	scene, camera := testScene()

	vert := NewShaderSource("vs")
	frag := NewShaderSource("fs")
	subpass := NewLightingSubpass(ctx, &vert, &frag, scene, camera)
	subpass.SetFixedLightCount(6)
	require.NoError(t, subpass.Prepare())

	rec := &fakeRecorder{}
	subpass.Draw(rec)

	require.Len(t, rec.bindings, 2)
	lights := rec.bindings[1]
	assert.Equal(t, uint64(unsafe.Sizeof(DeferredLights{})), lights.alloc.Size())
	assert.Equal(t, uint32(6), binary.LittleEndian.Uint32(lights.alloc.HostBytes()[:4]))
	assert.Equal(t, []recordedDraw{{3, 1}}, rec.draws)
}

func TestPipelineDrawBeforePrepare(t *testing.T) {
	ctx := gpu.NewRenderContext(nil, 1, 0, nil)
	scene, camera := testScene()

	vert := NewShaderSource("vs")
	frag := NewShaderSource("fs")
	subpass := NewForwardSubpass(ctx, &vert, &frag, scene, camera)

	pipeline := NewRenderPipeline("forward", nil)
	pipeline.AddSubpass(subpass)

	target := NewRenderTarget(64, 64, make([]Attachment, 1))
	assert.Panics(t, func() {
		pipeline.Draw(&fakeRecorder{}, target)
	})
}

func TestPipelineRunsSubpassesInOrder(t *testing.T) {
	ctx := gpu.NewRenderContext(nil, 1, 0, nil)
	scene, camera := testScene()

	makeSubpass := func(outputs []uint32) *ForwardSubpass {
		vert := NewShaderSource("vs")
		frag := NewShaderSource("fs")
		s := NewForwardSubpass(ctx, &vert, &frag, scene, camera)
		s.SetOutputAttachments(outputs)
		return s
	}

	first := makeSubpass([]uint32{1})
	second := makeSubpass([]uint32{0})

	pipeline := NewRenderPipeline("two-stage", nil)
	pipeline.AddSubpass(first)
	pipeline.AddSubpass(second)
	require.NoError(t, pipeline.Prepare())

	target := NewRenderTarget(64, 64, make([]Attachment, 2))
	rec := &fakeRecorder{}
	pipeline.Draw(rec, target)

	// The last subpass's output list is the one left on the target.
	assert.Equal(t, []uint32{0}, target.OutputAttachments())
	assert.Len(t, rec.draws, 2)
}
