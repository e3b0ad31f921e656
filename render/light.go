package render

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/lumen/core"
	"github.com/gekko3d/lumen/gpu"
)

// Light buffer capacities per pipeline flavor. These must match the array
// sizes in the consuming shaders.
const (
	MaxForwardLightCount  = 8
	MaxDeferredLightCount = 32
)

// LightRecordSize is the byte size of one LightRecord in the GPU buffer.
const LightRecordSize = 64

// LightRecord is the GPU representation of one light. The layout is shared
// with the shader uniform block and must not drift: four 16-byte vectors,
// 64 bytes total.
type LightRecord struct {
	Position  [4]float32 // xyz world position, w light type tag
	Color     [4]float32 // rgb color, w intensity
	Direction [4]float32 // xyz world direction, w range
	Info      [4]float32 // x inner cone angle, y outer cone angle (spot only)
}

// Compile-time layout guards. These fail to build if the struct sizes ever
// drift from the shader-side uniform block layout.
var (
	_ [LightRecordSize]byte                                   = [unsafe.Sizeof(LightRecord{})]byte{}
	_ [16 + MaxForwardLightCount*LightRecordSize]byte         = [unsafe.Sizeof(ForwardLights{})]byte{}
	_ [16 + MaxDeferredLightCount*LightRecordSize]byte        = [unsafe.Sizeof(DeferredLights{})]byte{}
	_ [16]byte                                                = [unsafe.Offsetof(ForwardLights{}.Lights)]byte{}
	_ [16]byte                                                = [unsafe.Offsetof(DeferredLights{}.Lights)]byte{}
)

// ForwardLights is the uniform block of the forward flavor: an effective
// count followed by a fixed-capacity record array. The 12 pad bytes keep the
// array at its 16-byte base alignment.
type ForwardLights struct {
	Count  uint32
	_      [12]byte
	Lights [MaxForwardLightCount]LightRecord
}

func (b *ForwardLights) SetCount(count uint32)  { b.Count = count }
func (b *ForwardLights) Records() []LightRecord { return b.Lights[:] }

func (b *ForwardLights) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(b)), int(unsafe.Sizeof(*b)))
}

// DeferredLights is the uniform block of the deferred flavor.
type DeferredLights struct {
	Count  uint32
	_      [12]byte
	Lights [MaxDeferredLightCount]LightRecord
}

func (b *DeferredLights) SetCount(count uint32)  { b.Count = count }
func (b *DeferredLights) Records() []LightRecord { return b.Lights[:] }

func (b *DeferredLights) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(b)), int(unsafe.Sizeof(*b)))
}

// LightBlock is the contract a fixed-capacity light container fulfills for
// the collectors below.
type LightBlock interface {
	SetCount(count uint32)
	Records() []LightRecord
	Bytes() []byte
}

// LightTypeDefinitions are the definition strings shaders need to interpret
// the light type tag stored in a record's position.w.
var LightTypeDefinitions = []string{
	"DIRECTIONAL_LIGHT 0",
	"POINT_LIGHT 1",
	"SPOT_LIGHT 2",
}

// MakeLightRecord converts one scene light into its GPU record. The light's
// local direction is rotated by its node's world orientation.
func MakeLightRecord(light *core.Light) LightRecord {
	props := &light.Properties
	transform := &light.Node.Transform
	position := transform.Position
	direction := transform.Rotation.Rotate(props.Direction)

	return LightRecord{
		Position:  [4]float32{position.X(), position.Y(), position.Z(), float32(light.Type)},
		Color:     [4]float32{props.Color.X(), props.Color.Y(), props.Color.Z(), props.Intensity},
		Direction: [4]float32{direction.X(), direction.Y(), direction.Z(), props.Range},
		Info:      [4]float32{props.InnerConeAngle, props.OuterConeAngle, 0, 0},
	}
}

// AllocateLights builds a light uniform block of flavor T from the scene
// lights, in input order, and uploads it to a transient uniform buffer of
// the active frame. The scene must not hold more lights than T's capacity;
// exceeding it is a contract breach and panics. Unused trailing records stay
// zeroed. The allocation is always full-container-sized.
func AllocateLights[T any, PT interface {
	*T
	LightBlock
}](frame *gpu.RenderFrame, sceneLights []*core.Light) gpu.Allocation {
	var info T
	block := PT(&info)
	records := block.Records()
	if len(sceneLights) > len(records) {
		panic(fmt.Sprintf("lumen/render: %d scene lights exceed the maximum capacity of %d",
			len(sceneLights), len(records)))
	}

	for i, light := range sceneLights {
		records[i] = MakeLightRecord(light)
	}
	block.SetCount(uint32(len(sceneLights)))

	buffer := frame.AllocateBuffer(wgpu.BufferUsageUniform, uint64(len(block.Bytes())))
	buffer.Update(block.Bytes())
	return buffer
}

// AllocateSetNumLights builds a light uniform block of flavor T holding
// exactly numLights records, regardless of how many lights the scene has.
// Slots beyond the scene's light count replicate the last scene light, so a
// caller can keep the shader-visible count constant across frames. The scene
// must be non-empty whenever numLights is positive.
func AllocateSetNumLights[T any, PT interface {
	*T
	LightBlock
}](frame *gpu.RenderFrame, sceneLights []*core.Light, numLights int) gpu.Allocation {
	var info T
	block := PT(&info)
	records := block.Records()
	if numLights > len(records) {
		panic(fmt.Sprintf("lumen/render: %d requested lights exceed the maximum capacity of %d",
			numLights, len(records)))
	}
	if numLights > 0 && len(sceneLights) == 0 {
		panic("lumen/render: no scene lights to replicate into a fixed-count light buffer")
	}

	for i := 0; i < numLights; i++ {
		light := sceneLights[len(sceneLights)-1]
		if i < len(sceneLights) {
			light = sceneLights[i]
		}
		records[i] = MakeLightRecord(light)
	}
	block.SetCount(uint32(numLights))

	buffer := frame.AllocateBuffer(wgpu.BufferUsageUniform, uint64(len(block.Bytes())))
	buffer.Update(block.Bytes())
	return buffer
}
