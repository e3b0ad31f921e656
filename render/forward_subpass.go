package render

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/core"
	"github.com/gekko3d/lumen/gpu"
)

// Shared binding slots of the per-frame uniform group.
const (
	bindingCamera uint32 = 0
	bindingLights uint32 = 1
)

// cameraUniform matches the shader-side camera block.
type cameraUniform struct {
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	Position [4]float32
}

func allocateCamera(frame *gpu.RenderFrame, camera *core.Camera) gpu.Allocation {
	cam := cameraUniform{
		View: camera.ViewMatrix(),
		Proj: GPUProjection(camera.ProjectionMatrix()),
		Position: [4]float32{
			camera.Position.X(), camera.Position.Y(), camera.Position.Z(), 1,
		},
	}
	buffer := frame.AllocateBuffer(wgpu.BufferUsageUniform, uint64(unsafe.Sizeof(cam)))
	buffer.Update(unsafe.Slice((*byte)(unsafe.Pointer(&cam)), int(unsafe.Sizeof(cam))))
	return buffer
}

// ForwardSubpass shades geometry directly against the scene's lights, capped
// at MaxForwardLightCount.
type ForwardSubpass struct {
	SubpassState

	scene  *core.Scene
	camera *core.Camera

	variant     ShaderVariant
	pipeline    *wgpu.RenderPipeline
	vertexCount uint32
}

func NewForwardSubpass(ctx *gpu.RenderContext, vertexShader, fragmentShader *ShaderSource, scene *core.Scene, camera *core.Camera) *ForwardSubpass {
	return &ForwardSubpass{
		SubpassState: NewSubpassState(ctx, vertexShader, fragmentShader),
		scene:        scene,
		camera:       camera,
		vertexCount:  3,
	}
}

// SetVertexCount overrides how many vertices the subpass draws. The default
// is a single fullscreen triangle.
func (s *ForwardSubpass) SetVertexCount(count uint32) {
	s.vertexCount = count
}

func (s *ForwardSubpass) Prepare() error {
	s.AddDefinitions(&s.variant, LightTypeDefinitions)
	s.AddDefinitions(&s.variant, []string{
		fmt.Sprintf("MAX_LIGHT_COUNT %d", MaxForwardLightCount),
	})

	pipeline, err := s.compilePipeline("ForwardSubpass", &s.variant)
	if err != nil {
		return err
	}
	s.pipeline = pipeline
	return nil
}

func (s *ForwardSubpass) Draw(rec CommandRecorder) {
	frame := s.RenderContext().ActiveFrame()

	lightBuffer := AllocateLights[ForwardLights](frame, s.scene.Lights())
	cameraBuffer := allocateCamera(frame, s.camera)

	if s.pipeline != nil {
		rec.SetPipeline(s.pipeline)
	}
	rec.SetRebindEachDraw(s.UseDynamicResources())
	rec.BindUniform(0, bindingCamera, cameraBuffer)
	rec.BindUniform(0, bindingLights, lightBuffer)
	rec.Draw(s.vertexCount, 1)
}
