package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type LightType uint32

const (
	LightTypeDirectional LightType = 0
	LightTypePoint       LightType = 1
	LightTypeSpot        LightType = 2
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	}
	return "unknown"
}

// LightProperties holds the shading parameters of a light. Direction is in
// the node's local space; the renderer rotates it by the node's orientation
// when marshalling lights for the GPU.
type LightProperties struct {
	Color          mgl32.Vec3
	Intensity      float32
	Direction      mgl32.Vec3
	Range          float32
	InnerConeAngle float32 // radians, spot lights only
	OuterConeAngle float32 // radians, spot lights only
}

// Light is a scene-graph light component attached to a node.
type Light struct {
	Type       LightType
	Properties LightProperties
	Node       *Node
}

func NewLight(name string, lightType LightType, props LightProperties) *Light {
	return &Light{
		Type:       lightType,
		Properties: props,
		Node:       NewNode(name),
	}
}
