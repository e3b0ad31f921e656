package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/lumen/core"
)

// DefaultBlockSize is the granularity transient buffer memory grows by.
const DefaultBlockSize = 256 * 1024

// RenderFrame owns the transient resources of one frame in flight. All
// allocations it serves become invalid when the frame is recycled by its
// RenderContext.
type RenderFrame struct {
	device     *wgpu.Device
	queue      *wgpu.Queue
	blockSize  uint64
	pools      map[wgpu.BufferUsage]*BufferPool
	generation uint64
}

func newRenderFrame(device *wgpu.Device, queue *wgpu.Queue, blockSize uint64) *RenderFrame {
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	return &RenderFrame{
		device:    device,
		queue:     queue,
		blockSize: blockSize,
		pools:     map[wgpu.BufferUsage]*BufferPool{},
	}
}

// AllocateBuffer hands out a transient range of GPU-visible memory for the
// given usage kind. The range lives until the frame is recycled.
func (f *RenderFrame) AllocateBuffer(usage wgpu.BufferUsage, size uint64) Allocation {
	pool, ok := f.pools[usage]
	if !ok {
		pool = newBufferPool(f, usage, f.blockSize)
		f.pools[usage] = pool
	}
	return pool.allocate(size)
}

func (f *RenderFrame) reset() {
	f.generation++
	for _, pool := range f.pools {
		pool.reset()
	}
}

// RenderContext rotates the frames in flight. Each frame has its own
// transient pools, so recording of different frames never shares state.
type RenderContext struct {
	state  *State
	frames []*RenderFrame
	active int
	log    core.Logger
}

// NewRenderContext creates a context with framesInFlight transient frames
// backed by the device. Pass a nil state for a host-memory context (no GPU
// buffers, allocations still track lifetimes).
func NewRenderContext(state *State, framesInFlight int, blockSize uint64, log core.Logger) *RenderContext {
	if framesInFlight < 1 {
		framesInFlight = 1
	}
	if log == nil {
		log = core.NewNopLogger()
	}
	var device *wgpu.Device
	var queue *wgpu.Queue
	if state != nil {
		device = state.device
		queue = state.queue
	}
	frames := make([]*RenderFrame, framesInFlight)
	for i := range frames {
		frames[i] = newRenderFrame(device, queue, blockSize)
	}
	log.Debugf("render context created with %d frames in flight", framesInFlight)
	return &RenderContext{state: state, frames: frames, log: log}
}

func (c *RenderContext) Logger() core.Logger { return c.log }

// State returns the device state the context was created with, nil for
// host-memory contexts.
func (c *RenderContext) State() *State { return c.state }

func (c *RenderContext) FramesInFlight() int { return len(c.frames) }

// ActiveFrame returns the frame currently being recorded.
func (c *RenderContext) ActiveFrame() *RenderFrame {
	return c.frames[c.active]
}

// BeginFrame advances to the next frame in flight and recycles its transient
// memory. Allocations made from the recycled frame's previous use become
// invalid.
func (c *RenderContext) BeginFrame() *RenderFrame {
	c.active = (c.active + 1) % len(c.frames)
	frame := c.frames[c.active]
	frame.reset()
	return frame
}
