package core

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Scene holds the components the renderer reads while recording a frame.
// It must not be mutated while draw recording is in progress.
type Scene struct {
	Nodes  []*Node
	lights []*Light
}

func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) AddLight(l *Light) {
	s.Nodes = append(s.Nodes, l.Node)
	s.lights = append(s.lights, l)
}

// Lights returns the scene's lights in insertion order. The returned slice
// is owned by the scene; callers must treat it as read-only.
func (s *Scene) Lights() []*Light {
	return s.lights
}

// SceneDef defines the initial state of a scene.
type SceneDef struct {
	Lights []LightDef `yaml:"lights"`
}

// LightDef defines a light instantiation.
type LightDef struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"` // "directional", "point", "spot"
	Position  [3]float32 `yaml:"position"`
	Color     [3]float32 `yaml:"color"`
	Intensity float32    `yaml:"intensity"`
	Direction [3]float32 `yaml:"direction"`
	Range     float32    `yaml:"range"`
	InnerCone float32    `yaml:"inner_cone"` // radians
	OuterCone float32    `yaml:"outer_cone"` // radians
}

func lightTypeFromString(s string) (LightType, error) {
	switch s {
	case "directional":
		return LightTypeDirectional, nil
	case "point":
		return LightTypePoint, nil
	case "spot":
		return LightTypeSpot, nil
	}
	return 0, fmt.Errorf("unknown light type %q", s)
}

// LoadSceneDef parses a YAML scene definition.
func LoadSceneDef(path string) (*SceneDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene def: %w", err)
	}
	return ParseSceneDef(data)
}

func ParseSceneDef(data []byte) (*SceneDef, error) {
	var def SceneDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse scene def: %w", err)
	}
	for _, l := range def.Lights {
		if _, err := lightTypeFromString(l.Type); err != nil {
			return nil, fmt.Errorf("light %q: %w", l.Name, err)
		}
	}
	return &def, nil
}

// BuildScene instantiates the definition into a live scene.
func (def *SceneDef) BuildScene() (*Scene, error) {
	scene := NewScene()
	for _, ld := range def.Lights {
		lightType, err := lightTypeFromString(ld.Type)
		if err != nil {
			return nil, fmt.Errorf("light %q: %w", ld.Name, err)
		}
		direction := mgl32.Vec3{ld.Direction[0], ld.Direction[1], ld.Direction[2]}
		if direction.Len() == 0 {
			direction = mgl32.Vec3{0, 0, -1}
		}
		light := NewLight(ld.Name, lightType, LightProperties{
			Color:          mgl32.Vec3{ld.Color[0], ld.Color[1], ld.Color[2]},
			Intensity:      ld.Intensity,
			Direction:      direction,
			Range:          ld.Range,
			InnerConeAngle: ld.InnerCone,
			OuterConeAngle: ld.OuterCone,
		})
		light.Node.Transform.Position = mgl32.Vec3{ld.Position[0], ld.Position[1], ld.Position[2]}
		scene.AddLight(light)
	}
	return scene, nil
}
