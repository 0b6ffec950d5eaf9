package scene

import (
	"fmt"

	"codeberg.org/mutker/framescore/internal/errors"
	"gopkg.in/yaml.v3"
)

type GeometryKind string

const (
	KindBox         GeometryKind = "box"
	KindPlane       GeometryKind = "plane"
	KindCone        GeometryKind = "cone"
	KindCylinder    GeometryKind = "cylinder"
	KindIcosahedron GeometryKind = "icosahedron"
	KindSphere      GeometryKind = "sphere"
	KindModel       GeometryKind = "model"
)

const defaultSegments = 32

type Geometry struct {
	Kind     GeometryKind `yaml:"kind"`
	Segments int          `yaml:"segments,omitempty"`
	Detail   int          `yaml:"detail,omitempty"`
	// Triangles is required for models and overrides the derived count
	// for other kinds.
	Triangles int `yaml:"triangles,omitempty"`
}

// TriangleCount returns the number of triangles one draw of the geometry
// submits.
func (g Geometry) TriangleCount() int {
	if g.Triangles > 0 {
		return g.Triangles
	}

	segments := g.Segments
	if segments <= 0 {
		segments = defaultSegments
	}

	switch g.Kind {
	case KindBox:
		return 12
	case KindPlane:
		return 2
	case KindCone:
		return 2 * segments
	case KindCylinder:
		return 4 * segments
	case KindIcosahedron:
		return 20 * (g.Detail + 1) * (g.Detail + 1)
	case KindSphere:
		rings := max(2, segments/2)
		return 2*segments*rings - 2*segments
	default:
		return 0
	}
}

type Material struct {
	Shader   string   `yaml:"shader"`
	Textures []string `yaml:"textures,omitempty"`
}

type Mesh struct {
	Name     string `yaml:"name"`
	Geometry string `yaml:"geometry"`
	// Materials lists one material per geometry group; each group is a
	// separate draw call.
	Materials  []string `yaml:"materials"`
	Hidden     bool     `yaml:"hidden,omitempty"`
	CastShadow bool     `yaml:"cast_shadow,omitempty"`
}

type Light struct {
	Kind       string `yaml:"kind"`
	CastShadow bool   `yaml:"cast_shadow,omitempty"`
}

// Scene describes what the renderer draws each frame.
type Scene struct {
	Name       string              `yaml:"name"`
	Shadows    bool                `yaml:"shadows,omitempty"`
	Lights     []Light             `yaml:"lights,omitempty"`
	Geometries map[string]Geometry `yaml:"geometries"`
	Materials  map[string]Material `yaml:"materials"`
	Meshes     []Mesh              `yaml:"meshes"`
}

// Parse decodes and validates a YAML scene description.
func Parse(data []byte) (*Scene, error) {
	errFactory := errors.New()

	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errFactory.Wrap(ErrParseScene, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

func (s *Scene) Validate() error {
	errFactory := errors.New()

	if len(s.Meshes) == 0 {
		return errFactory.WithData(ErrInvalidScene, "scene has no meshes")
	}

	for name, g := range s.Geometries {
		if g.Kind == KindModel && g.Triangles <= 0 {
			return errFactory.WithData(ErrInvalidScene, fmt.Sprintf("model geometry %q needs a triangle count", name))
		}
		if g.TriangleCount() <= 0 {
			return errFactory.WithData(ErrInvalidScene, fmt.Sprintf("geometry %q has unknown kind %q", name, g.Kind))
		}
	}

	seen := make(map[string]bool, len(s.Meshes))
	for _, m := range s.Meshes {
		if m.Name == "" {
			return errFactory.WithData(ErrInvalidScene, "mesh without a name")
		}
		if seen[m.Name] {
			return errFactory.WithData(ErrInvalidScene, fmt.Sprintf("duplicate mesh %q", m.Name))
		}
		seen[m.Name] = true

		if _, ok := s.Geometries[m.Geometry]; !ok {
			return errFactory.WithData(ErrInvalidScene, fmt.Sprintf("mesh %q references unknown geometry %q", m.Name, m.Geometry))
		}
		if len(m.Materials) == 0 {
			return errFactory.WithData(ErrInvalidScene, fmt.Sprintf("mesh %q has no material", m.Name))
		}
		for _, mat := range m.Materials {
			if _, ok := s.Materials[mat]; !ok {
				return errFactory.WithData(ErrInvalidScene, fmt.Sprintf("mesh %q references unknown material %q", m.Name, mat))
			}
		}
	}

	return nil
}

// shadowCasters counts the lights that render a shadow map.
func (s *Scene) shadowCasters() int {
	if !s.Shadows {
		return 0
	}

	casters := 0
	for _, l := range s.Lights {
		if l.CastShadow {
			casters++
		}
	}

	return casters
}
