package scene

import (
	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/stats"
	"github.com/samber/lo"
)

const depthProgram = "depth"

// Renderer stands in for the rendering engine: it walks the scene each frame
// and reports the counters a GPU renderer would.
type Renderer struct {
	scene  *Scene
	hidden map[string]bool
	last   stats.Counters
	frames int
}

func NewRenderer(s *Scene) *Renderer {
	hidden := make(map[string]bool, len(s.Meshes))
	for _, m := range s.Meshes {
		hidden[m.Name] = m.Hidden
	}

	return &Renderer{scene: s, hidden: hidden}
}

// Render draws one frame and returns its counters.
func (r *Renderer) Render() stats.Counters {
	var counters stats.Counters

	casters := r.scene.shadowCasters()
	geometries := make(map[string]struct{})
	textures := make(map[string]struct{})
	programs := make(map[string]struct{})

	for _, m := range r.scene.Meshes {
		if r.hidden[m.Name] {
			continue
		}

		geometry := r.scene.Geometries[m.Geometry]
		passes := 1
		if m.CastShadow && casters > 0 {
			passes += casters
			programs[depthProgram] = struct{}{}
		}

		counters.DrawCalls += len(m.Materials) * passes
		counters.Triangles += geometry.TriangleCount() * passes
		geometries[m.Geometry] = struct{}{}

		for _, name := range m.Materials {
			material := r.scene.Materials[name]
			programs[material.Shader] = struct{}{}
			for _, tex := range material.Textures {
				textures[tex] = struct{}{}
			}
		}
	}

	counters.Geometries = len(geometries)
	counters.Textures = len(textures)
	counters.Programs = len(programs)

	r.last = counters
	r.frames++

	return counters
}

// Counters returns the counters of the most recent frame.
func (r *Renderer) Counters() stats.Counters {
	return r.last
}

// Frames returns the number of frames rendered.
func (r *Renderer) Frames() int {
	return r.frames
}

// SetHidden shows or hides a mesh from the next frame on.
func (r *Renderer) SetHidden(name string, hidden bool) error {
	if _, ok := r.hidden[name]; !ok {
		return errors.New().WithData(ErrUnknownMesh, name)
	}
	r.hidden[name] = hidden

	return nil
}

// Visible returns the names of the meshes currently drawn.
func (r *Renderer) Visible() []string {
	return lo.FilterMap(r.scene.Meshes, func(m Mesh, _ int) (string, bool) {
		return m.Name, !r.hidden[m.Name]
	})
}
