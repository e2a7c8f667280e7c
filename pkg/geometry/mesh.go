package geometry

import (
	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/core"
)

// Mesh is a triangle soup: every three consecutive vertices form a triangle
type Mesh struct {
	triangles []Triangle
	bbox      core.AABB
}

// NewMesh creates a mesh from vertices grouped in triples
func NewMesh(vertices []core.Vec3) (*Mesh, error) {
	if len(vertices)%3 != 0 {
		return nil, errors.Wrapf(core.ErrInvalidGeometry, "mesh: vertex count %d is not a multiple of 3", len(vertices))
	}
	for i, v := range vertices {
		if !v.IsFinite() {
			return nil, errors.Wrapf(core.ErrInvalidGeometry, "mesh: vertex %d is not finite", i)
		}
	}

	m := &Mesh{triangles: make([]Triangle, 0, len(vertices)/3)}
	for i := 0; i < len(vertices); i += 3 {
		m.triangles = append(m.triangles, NewTriangle(vertices[i], vertices[i+1], vertices[i+2]))
	}
	if len(vertices) > 0 {
		m.bbox = core.NewAABBFromPoints(vertices...)
	}
	return m, nil
}

// Len returns the number of triangles
func (m *Mesh) Len() int {
	return len(m.triangles)
}

// Intersect returns the nearest triangle hit by linear search
func (m *Mesh) Intersect(ray core.Ray) (float64, bool) {
	closest := 0.0
	hitAnything := false
	for _, tri := range m.triangles {
		if t, ok := tri.Intersect(ray); ok && (!hitAnything || t < closest) {
			closest = t
			hitAnything = true
		}
	}
	return closest, hitAnything
}

// BoundingBox returns the bounds of all vertices
func (m *Mesh) BoundingBox() core.AABB {
	return m.bbox
}

// Kind returns KindMesh
func (m *Mesh) Kind() Kind { return KindMesh }

// Shapes returns one shape per triangle so acceleration structures can
// split the mesh.
func (m *Mesh) Shapes() []Shape {
	shapes := make([]Shape, len(m.triangles))
	for i, tri := range m.triangles {
		shapes[i] = tri
	}
	return shapes
}

// Triangles returns a copy of the mesh triangles
func (m *Mesh) Triangles() []Triangle {
	return append([]Triangle(nil), m.triangles...)
}

func (m *Mesh) primitive() {}
