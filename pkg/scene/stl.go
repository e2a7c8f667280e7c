package scene

import (
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/geometry"
)

// Triangles returns the surface of every primitive as one triangle soup
func (s *Scene) Triangles() []geometry.Triangle {
	var triangles []geometry.Triangle
	for _, p := range s.primitives {
		triangles = append(triangles, p.Triangles()...)
	}
	return triangles
}

// SaveSTL writes the scene surface to path as binary STL. Spheres are
// tessellated with marching cubes.
func (s *Scene) SaveSTL(path string) error {
	triangles := s.Triangles()
	mesh := make([]*sdf.Triangle3, len(triangles))
	for i, tri := range triangles {
		mesh[i] = &sdf.Triangle3{
			v3.Vec{X: tri.V0.X, Y: tri.V0.Y, Z: tri.V0.Z},
			v3.Vec{X: tri.V1.X, Y: tri.V1.Y, Z: tri.V1.Z},
			v3.Vec{X: tri.V2.X, Y: tri.V2.Y, Z: tri.V2.Z},
		}
	}

	if err := render.SaveSTL(path, mesh); err != nil {
		return errors.Wrapf(err, "save stl %s", path)
	}
	if s.logger != nil {
		s.logger.Printf("Wrote %d triangles to %s\n", len(mesh), path)
	}
	return nil
}
