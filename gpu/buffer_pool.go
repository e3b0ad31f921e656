package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Transient uniform suballocations must start on the device's minimum
// uniform-buffer offset alignment. 256 is the WebGPU default limit.
const uniformOffsetAlignment = 256

// blockBacking is the memory a BufferBlock hands out ranges of. The GPU
// backing writes through the queue; the host backing is plain memory used by
// tests and CPU-side capture.
type blockBacking interface {
	write(offset uint64, data []byte)
	capacity() uint64
	gpuBuffer() *wgpu.Buffer
}

type gpuBacking struct {
	buffer *wgpu.Buffer
	queue  *wgpu.Queue
	size   uint64
}

func (b *gpuBacking) write(offset uint64, data []byte) {
	b.queue.WriteBuffer(b.buffer, offset, data)
}

func (b *gpuBacking) capacity() uint64 { return b.size }

func (b *gpuBacking) gpuBuffer() *wgpu.Buffer { return b.buffer }

type hostBacking struct {
	data []byte
}

func (b *hostBacking) write(offset uint64, data []byte) {
	copy(b.data[offset:], data)
}

func (b *hostBacking) capacity() uint64 { return uint64(len(b.data)) }

func (b *hostBacking) gpuBuffer() *wgpu.Buffer { return nil }

// BufferBlock is a linear bump allocator over one backing buffer. Allocations
// are never freed individually; the whole block is recycled when its frame
// resets.
type BufferBlock struct {
	backing   blockBacking
	alignment uint64
	head      uint64
}

func newBufferBlock(backing blockBacking, alignment uint64) *BufferBlock {
	return &BufferBlock{backing: backing, alignment: alignment}
}

func alignUp(v, alignment uint64) uint64 {
	return (v + alignment - 1) &^ (alignment - 1)
}

func (b *BufferBlock) allocate(size uint64) (offset uint64, ok bool) {
	offset = alignUp(b.head, b.alignment)
	if offset+size > b.backing.capacity() {
		return 0, false
	}
	b.head = offset + size
	return offset, true
}

func (b *BufferBlock) reset() {
	b.head = 0
}

// Allocation is a transient range of GPU-visible memory. It is only valid for
// the frame that produced it; Update panics once the frame has been recycled.
type Allocation struct {
	block      *BufferBlock
	frame      *RenderFrame
	generation uint64
	offset     uint64
	size       uint64
}

func (a Allocation) Empty() bool { return a.block == nil }

func (a Allocation) Offset() uint64 { return a.offset }

func (a Allocation) Size() uint64 { return a.size }

// Buffer returns the wgpu buffer backing this allocation, nil for host-backed
// frames.
func (a Allocation) Buffer() *wgpu.Buffer {
	if a.block == nil {
		return nil
	}
	return a.block.backing.gpuBuffer()
}

// HostBytes returns the backing range of a host-backed allocation, nil when
// the allocation lives in GPU memory. Used for CPU-side capture and tests.
func (a Allocation) HostBytes() []byte {
	if a.block == nil {
		return nil
	}
	host, ok := a.block.backing.(*hostBacking)
	if !ok {
		return nil
	}
	return host.data[a.offset : a.offset+a.size]
}

// Update copies host data into the allocated range. The allocation must
// belong to the frame currently being recorded.
func (a Allocation) Update(data []byte) {
	if a.block == nil {
		panic("lumen/gpu: update of empty buffer allocation")
	}
	if a.generation != a.frame.generation {
		panic("lumen/gpu: buffer allocation used after its frame was recycled")
	}
	if uint64(len(data)) > a.size {
		panic(fmt.Sprintf("lumen/gpu: update of %d bytes exceeds allocation of %d bytes", len(data), a.size))
	}
	a.block.backing.write(a.offset, data)
}

// BufferPool grows a list of equally sized blocks for one buffer usage kind
// and serves linear allocations from them.
type BufferPool struct {
	frame     *RenderFrame
	usage     wgpu.BufferUsage
	blockSize uint64
	alignment uint64
	blocks    []*BufferBlock
	active    int
}

func newBufferPool(frame *RenderFrame, usage wgpu.BufferUsage, blockSize uint64) *BufferPool {
	alignment := uint64(4)
	if usage&(wgpu.BufferUsageUniform|wgpu.BufferUsageStorage) != 0 {
		alignment = uniformOffsetAlignment
	}
	return &BufferPool{
		frame:     frame,
		usage:     usage,
		blockSize: blockSize,
		alignment: alignment,
	}
}

func (p *BufferPool) newBacking(size uint64) blockBacking {
	if p.frame.device == nil {
		return &hostBacking{data: make([]byte, size)}
	}
	buffer, err := p.frame.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("TransientBlock usage=%d", p.usage),
		Size:  size,
		Usage: p.usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	return &gpuBacking{buffer: buffer, queue: p.frame.queue, size: size}
}

func (p *BufferPool) allocate(size uint64) Allocation {
	for ; p.active < len(p.blocks); p.active++ {
		if offset, ok := p.blocks[p.active].allocate(size); ok {
			return p.wrap(p.blocks[p.active], offset, size)
		}
	}

	blockSize := p.blockSize
	if size > blockSize {
		blockSize = alignUp(size, p.alignment)
	}
	block := newBufferBlock(p.newBacking(blockSize), p.alignment)
	p.blocks = append(p.blocks, block)

	offset, ok := block.allocate(size)
	if !ok {
		panic(fmt.Sprintf("lumen/gpu: fresh block of %d bytes cannot hold %d bytes", blockSize, size))
	}
	return p.wrap(block, offset, size)
}

func (p *BufferPool) wrap(block *BufferBlock, offset, size uint64) Allocation {
	return Allocation{
		block:      block,
		frame:      p.frame,
		generation: p.frame.generation,
		offset:     offset,
		size:       size,
	}
}

func (p *BufferPool) reset() {
	for _, block := range p.blocks {
		block.reset()
	}
	p.active = 0
}
