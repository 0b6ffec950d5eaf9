package scene_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/scene"
	"codeberg.org/mutker/framescore/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangleCount(t *testing.T) {
	tests := []struct {
		geometry scene.Geometry
		want     int
	}{
		{scene.Geometry{Kind: scene.KindBox}, 12},
		{scene.Geometry{Kind: scene.KindPlane}, 2},
		{scene.Geometry{Kind: scene.KindCone, Segments: 32}, 64},
		{scene.Geometry{Kind: scene.KindCylinder, Segments: 8}, 32},
		{scene.Geometry{Kind: scene.KindIcosahedron}, 20},
		{scene.Geometry{Kind: scene.KindIcosahedron, Detail: 1}, 80},
		{scene.Geometry{Kind: scene.KindSphere, Segments: 32}, 960},
		{scene.Geometry{Kind: scene.KindModel, Triangles: 5000}, 5000},
		{scene.Geometry{Kind: "torus"}, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.geometry.TriangleCount(), "%+v", tt.geometry)
	}
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{"model", "primitives", "skybox"}, scene.Presets())

	_, err := scene.Preset("cathedral")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, scene.ErrUnknownPreset))
}

func TestRenderPrimitives(t *testing.T) {
	s, err := scene.Preset("primitives")
	require.NoError(t, err)

	r := scene.NewRenderer(s)
	counters := r.Render()

	assert.Equal(t, stats.Counters{
		DrawCalls:  3,
		Triangles:  44,
		Geometries: 2,
		Textures:   0,
		Programs:   2,
	}, counters)
	assert.Equal(t, counters, r.Counters())
	assert.Equal(t, []string{"cube-green", "cube-blue", "icosahedron"}, r.Visible())

	require.NoError(t, r.SetHidden("cone", false))
	counters = r.Render()
	assert.Equal(t, 4, counters.DrawCalls)
	assert.Equal(t, 108, counters.Triangles)
	assert.Equal(t, 3, counters.Geometries)
	assert.Equal(t, 2, r.Frames())

	err = r.SetHidden("teapot", true)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, scene.ErrUnknownMesh))
}

func TestRenderSkyboxWithShadows(t *testing.T) {
	s, err := scene.Preset("skybox")
	require.NoError(t, err)

	counters := scene.NewRenderer(s).Render()

	assert.Equal(t, 8, counters.DrawCalls, "shadow pass for the cube plus one call per sky face")
	assert.Equal(t, 36, counters.Triangles)
	assert.Equal(t, 2, counters.Geometries)
	assert.Equal(t, 6, counters.Textures)
	assert.Equal(t, 3, counters.Programs)
}

func TestRenderModel(t *testing.T) {
	s, err := scene.Preset("model")
	require.NoError(t, err)

	counters := scene.NewRenderer(s).Render()

	assert.Equal(t, 5, counters.DrawCalls)
	assert.Equal(t, 33840, counters.Triangles)
	assert.Equal(t, 8, counters.Resources())
}

func TestParseRejectsInvalidScenes(t *testing.T) {
	tests := map[string]string{
		"no meshes":        "name: empty\n",
		"unknown geometry": "meshes:\n  - name: a\n    geometry: missing\n    materials: [m]\nmaterials:\n  m: {shader: basic}\n",
		"unknown material": "geometries:\n  g: {kind: box}\nmeshes:\n  - name: a\n    geometry: g\n    materials: [missing]\n",
		"no material":      "geometries:\n  g: {kind: box}\nmeshes:\n  - name: a\n    geometry: g\n",
		"model triangles":  "geometries:\n  g: {kind: model}\nmaterials:\n  m: {shader: basic}\nmeshes:\n  - name: a\n    geometry: g\n    materials: [m]\n",
		"duplicate mesh":   "geometries:\n  g: {kind: box}\nmaterials:\n  m: {shader: basic}\nmeshes:\n  - {name: a, geometry: g, materials: [m]}\n  - {name: a, geometry: g, materials: [m]}\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := scene.Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, scene.ErrInvalidScene), err.Error())
		})
	}

	_, err := scene.Parse([]byte("meshes: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, scene.ErrParseScene))
}

func TestLoadReportsProgress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	doc := `
name: custom
geometries:
  plane: {kind: plane}
materials:
  floor: {shader: lambert, textures: [floor.png]}
meshes:
  - {name: floor, geometry: plane, materials: [floor]}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	var fractions []float64
	s, err := scene.Load(context.Background(), path, func(f float64) {
		fractions = append(fractions, f)
	})
	require.NoError(t, err)
	assert.Equal(t, "custom", s.Name)

	require.NotEmpty(t, fractions)
	assert.Equal(t, 0.0, fractions[0])
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	assert.IsNonDecreasing(t, fractions)

	counters := scene.NewRenderer(s).Render()
	assert.Equal(t, stats.Counters{DrawCalls: 1, Triangles: 2, Geometries: 1, Textures: 1, Programs: 1}, counters)
}

func TestLoadErrors(t *testing.T) {
	_, err := scene.Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, scene.ErrReadScene))

	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = scene.Load(ctx, path, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, errors.HasCode(err, scene.ErrReadScene), "cancellation is a read failure")
	assert.False(t, errors.HasCode(err, errors.ErrTimeout))
}
