package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32

	FovY   float32 // radians
	Aspect float32
	Near   float32
	Far    float32
}

func NewCamera(aspect float32) *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 2, 10},
		FovY:     float32(math.Pi / 3),
		Aspect:   aspect,
		Near:     0.1,
		Far:      1000.0,
	}
}

func (c *Camera) Forward() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		float32(-math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
	}
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	eye := c.Position
	target := eye.Add(c.Forward())
	up := mgl32.Vec3{0, 1, 0}
	return mgl32.LookAtV(eye, target, up)
}

// ProjectionMatrix returns a GL-convention perspective matrix (-1..1 depth).
// Feed it through render.GPUProjection before uploading for the GPU backend.
func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}
