package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// clipCorrection remaps GL clip space conventions (Y up, -1..1 depth) to the
// backend's (Y down, 0..1 depth). Column-major, applied on the left.
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, -1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// GPUProjection converts a GL-convention projection matrix into the clip
// space the GPU backend expects.
func GPUProjection(proj mgl32.Mat4) mgl32.Mat4 {
	return clipCorrection.Mul4(proj)
}
