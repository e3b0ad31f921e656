package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sceneYAML = []byte(`
lights:
  - name: sun
    type: directional
    direction: [0, -1, 0]
    color: [1, 1, 1]
    intensity: 3
  - name: lamp
    type: point
    position: [2, 1.5, 0]
    color: [1, 0.4, 0.1]
    intensity: 8
    range: 12
  - name: spot
    type: spot
    position: [-3, 4, 1]
    direction: [0.5, -1, 0]
    color: [0.2, 0.6, 1]
    intensity: 10
    range: 20
    inner_cone: 0.17
    outer_cone: 0.52
`)

func TestParseSceneDef(t *testing.T) {
	def, err := ParseSceneDef(sceneYAML)
	require.NoError(t, err)
	require.Len(t, def.Lights, 3)
	assert.Equal(t, "sun", def.Lights[0].Name)
	assert.Equal(t, "spot", def.Lights[2].Type)
}

func TestParseSceneDefUnknownType(t *testing.T) {
	_, err := ParseSceneDef([]byte("lights:\n  - name: bad\n    type: area\n"))
	assert.ErrorContains(t, err, "unknown light type")
}

func TestBuildScene(t *testing.T) {
	def, err := ParseSceneDef(sceneYAML)
	require.NoError(t, err)

	scene, err := def.BuildScene()
	require.NoError(t, err)
	require.Len(t, scene.Lights(), 3)

	lamp := scene.Lights()[1]
	assert.Equal(t, LightTypePoint, lamp.Type)
	assert.Equal(t, mgl32.Vec3{2, 1.5, 0}, lamp.Node.Transform.Position)
	assert.Equal(t, float32(8), lamp.Properties.Intensity)
	assert.Equal(t, float32(12), lamp.Properties.Range)

	spot := scene.Lights()[2]
	assert.Equal(t, LightTypeSpot, spot.Type)
	assert.Equal(t, float32(0.17), spot.Properties.InnerConeAngle)
	assert.Equal(t, float32(0.52), spot.Properties.OuterConeAngle)

	// A zero direction defaults to forward so rotation stays well defined.
	sun := scene.Lights()[0]
	assert.NotEqual(t, float32(0), sun.Properties.Direction.Len())
}

func TestSceneAddLight(t *testing.T) {
	scene := NewScene()
	light := NewLight("l", LightTypePoint, LightProperties{Intensity: 1})
	scene.AddLight(light)

	require.Len(t, scene.Lights(), 1)
	assert.Same(t, light, scene.Lights()[0])
	assert.Same(t, light.Node, scene.Nodes[0])
}
