package geometry

import "github.com/df07/go-sky-ratio/pkg/core"

// Shape is anything an acceleration structure can index: it reports the
// nearest non-negative distance along a ray, in units of the ray direction's
// magnitude, and a bounding box.
type Shape interface {
	Intersect(ray core.Ray) (float64, bool)
	BoundingBox() core.AABB
}

// Kind identifies a primitive variant
type Kind int

const (
	KindBox Kind = iota
	KindSphere
	KindMesh
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindSphere:
		return "sphere"
	case KindMesh:
		return "mesh"
	}
	return "unknown"
}

// Primitive is a scene-level object. The set of variants is closed:
// *Box, *Sphere and *Mesh are the only implementations.
type Primitive interface {
	Shape
	Kind() Kind
	// Shapes returns the leaves an acceleration structure should index.
	Shapes() []Shape
	// Triangles returns the surface as a triangle soup for export.
	Triangles() []Triangle

	primitive()
}

// Intersect returns the nearest hit distance of ray against shapes by
// linear scan.
func Intersect(shapes []Shape, ray core.Ray) (float64, bool) {
	closest := 0.0
	hitAnything := false
	for _, shape := range shapes {
		if t, ok := shape.Intersect(ray); ok && (!hitAnything || t < closest) {
			closest = t
			hitAnything = true
		}
	}
	return closest, hitAnything
}
