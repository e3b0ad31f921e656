package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/lumen/core"
	"github.com/gekko3d/lumen/gpu"
)

// LightingSubpass is the deferred lighting resolve: it reads the G-buffer
// through its input attachments and shades a fullscreen triangle against up
// to MaxDeferredLightCount lights.
type LightingSubpass struct {
	SubpassState

	scene  *core.Scene
	camera *core.Camera

	variant  ShaderVariant
	pipeline *wgpu.RenderPipeline

	// fixedLightCount >= 0 switches light collection to the fixed-count
	// policy so the shader-visible light count stays constant across frames.
	fixedLightCount int
}

func NewLightingSubpass(ctx *gpu.RenderContext, vertexShader, fragmentShader *ShaderSource, scene *core.Scene, camera *core.Camera) *LightingSubpass {
	s := &LightingSubpass{
		SubpassState:    NewSubpassState(ctx, vertexShader, fragmentShader),
		scene:           scene,
		camera:          camera,
		fixedLightCount: -1,
	}
	// G-buffer wiring: depth, albedo, normal.
	s.SetInputAttachments([]uint32{1, 2, 3})
	// The resolve writes color only.
	s.DepthStencilState().DepthTestEnable = false
	return s
}

// SetFixedLightCount pins the number of lights uploaded each frame,
// replicating the last scene light into the extra slots. Pass a negative
// count to return to exact collection.
func (s *LightingSubpass) SetFixedLightCount(count int) {
	s.fixedLightCount = count
}

func (s *LightingSubpass) Prepare() error {
	s.AddDefinitions(&s.variant, LightTypeDefinitions)
	s.AddDefinitions(&s.variant, []string{
		fmt.Sprintf("MAX_LIGHT_COUNT %d", MaxDeferredLightCount),
	})

	pipeline, err := s.compilePipeline("LightingSubpass", &s.variant)
	if err != nil {
		return err
	}
	s.pipeline = pipeline
	return nil
}

func (s *LightingSubpass) Draw(rec CommandRecorder) {
	frame := s.RenderContext().ActiveFrame()

	var lightBuffer gpu.Allocation
	if s.fixedLightCount >= 0 {
		lightBuffer = AllocateSetNumLights[DeferredLights](frame, s.scene.Lights(), s.fixedLightCount)
	} else {
		lightBuffer = AllocateLights[DeferredLights](frame, s.scene.Lights())
	}
	cameraBuffer := allocateCamera(frame, s.camera)

	if s.pipeline != nil {
		rec.SetPipeline(s.pipeline)
	}
	rec.SetRebindEachDraw(s.UseDynamicResources())
	rec.BindUniform(0, bindingCamera, cameraBuffer)
	rec.BindUniform(0, bindingLights, lightBuffer)
	rec.Draw(3, 1)
}
