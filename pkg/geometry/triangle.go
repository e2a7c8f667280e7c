package geometry

import "github.com/df07/go-sky-ratio/pkg/core"

// triangleEpsilon rejects near-parallel rays and hits at the ray origin
const triangleEpsilon = 1e-9

// Triangle represents a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3
	bbox       core.AABB
}

// NewTriangle creates a new triangle from three vertices
func NewTriangle(v0, v1, v2 core.Vec3) Triangle {
	return Triangle{
		V0:   v0,
		V1:   v1,
		V2:   v2,
		bbox: core.NewAABBFromPoints(v0, v1, v2),
	}
}

// Intersect tests the ray against the triangle using the Möller-Trumbore
// algorithm. Both faces are hit.
func (t Triangle) Intersect(ray core.Ray) (float64, bool) {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// Ray lies in the plane of the triangle
	if a > -triangleEpsilon && a < triangleEpsilon {
		return 0, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, false
	}

	distance := f * edge2.Dot(q)
	if distance <= triangleEpsilon {
		return 0, false
	}
	return distance, true
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Normal returns the unit normal following the V0, V1, V2 winding
func (t Triangle) Normal() core.Vec3 {
	return t.V1.Subtract(t.V0).Cross(t.V2.Subtract(t.V0)).Normalize()
}
