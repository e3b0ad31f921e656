package gpu

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// PassRecorder records draw commands into one wgpu render pass. It collects
// buffer bindings per group id and materializes them as bind groups right
// before a draw, mirroring how bind groups are grouped and created from the
// active pipeline's layouts. Bind groups are native objects: the recorder
// releases every group it replaces, and Release frees the rest at the end
// of the pass.
type PassRecorder struct {
	device   *wgpu.Device
	enc      *wgpu.RenderPassEncoder
	pipeline *wgpu.RenderPipeline

	pending    map[uint32][]wgpu.BindGroupEntry
	cached     map[uint32]cachedBindGroup
	rebindEach bool

	createGroup  func(group uint32, entries []wgpu.BindGroupEntry) *wgpu.BindGroup
	releaseGroup func(bindGroup *wgpu.BindGroup)
}

// cachedBindGroup pairs a live bind group with the key of the entries it was
// built from, so unchanged bindings reuse the group instead of churning
// native objects every draw.
type cachedBindGroup struct {
	key   string
	group *wgpu.BindGroup
}

func NewPassRecorder(device *wgpu.Device, enc *wgpu.RenderPassEncoder) *PassRecorder {
	r := &PassRecorder{
		device:  device,
		enc:     enc,
		pending: map[uint32][]wgpu.BindGroupEntry{},
		cached:  map[uint32]cachedBindGroup{},
	}
	r.createGroup = r.deviceCreateGroup
	r.releaseGroup = func(bindGroup *wgpu.BindGroup) { bindGroup.Release() }
	return r
}

func (r *PassRecorder) SetPipeline(pipeline *wgpu.RenderPipeline) {
	r.pipeline = pipeline
	r.enc.SetPipeline(pipeline)
	r.invalidate()
}

// SetRebindEachDraw selects whether bind groups are rebuilt for every draw
// call or built once and reused for the rest of the pass.
func (r *PassRecorder) SetRebindEachDraw(rebind bool) {
	r.rebindEach = rebind
}

// BindUniform stages a transient buffer range for binding at group/binding.
func (r *PassRecorder) BindUniform(group, binding uint32, alloc Allocation) {
	buffer := alloc.Buffer()
	if buffer == nil {
		panic("lumen/gpu: binding a host-backed allocation to a render pass")
	}
	r.pending[group] = append(r.pending[group], wgpu.BindGroupEntry{
		Binding: binding,
		Buffer:  buffer,
		Offset:  alloc.Offset(),
		Size:    alloc.Size(),
	})
}

// Release frees the bind groups created during the pass. Call it after the
// last draw, before ending the pass encoder.
func (r *PassRecorder) Release() {
	r.invalidate()
}

func (r *PassRecorder) invalidate() {
	for group, cur := range r.cached {
		r.releaseGroup(cur.group)
		delete(r.cached, group)
	}
}

func (r *PassRecorder) deviceCreateGroup(group uint32, entries []wgpu.BindGroupEntry) *wgpu.BindGroup {
	layout := r.pipeline.GetBindGroupLayout(group)
	defer layout.Release()
	bindGroup, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		panic(err)
	}
	return bindGroup
}

func bindGroupKey(entries []wgpu.BindGroupEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d:%p:%d:%d;", e.Binding, e.Buffer, e.Offset, e.Size)
	}
	return b.String()
}

// reconcile turns staged entries into cached bind groups. A group whose
// entries are unchanged keeps its bind group; a replaced group is released
// before the new one takes its slot.
func (r *PassRecorder) reconcile() {
	for group, entries := range r.pending {
		key := bindGroupKey(entries)
		if cur, ok := r.cached[group]; !ok || cur.key != key {
			if ok {
				r.releaseGroup(cur.group)
			}
			r.cached[group] = cachedBindGroup{key: key, group: r.createGroup(group, entries)}
		}
		delete(r.pending, group)
	}
}

func (r *PassRecorder) flush() {
	r.reconcile()
	for group, cur := range r.cached {
		r.enc.SetBindGroup(group, cur.group, nil)
	}
	if r.rebindEach {
		r.invalidate()
	}
}

func (r *PassRecorder) Draw(vertexCount, instanceCount uint32) {
	r.flush()
	r.enc.Draw(vertexCount, instanceCount, 0, 0)
}
