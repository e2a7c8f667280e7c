package geometry

import (
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/core"
)

// sphereMeshCells controls marching cubes resolution for sphere export
const sphereMeshCells = 24

// Sphere represents a sphere shape
type Sphere struct {
	Center core.Vec3
	Radius float64
}

// NewSphere creates a new sphere. The radius must be positive.
func NewSphere(center core.Vec3, radius float64) (*Sphere, error) {
	if !center.IsFinite() || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, errors.Wrap(core.ErrInvalidGeometry, "sphere: non-finite parameter")
	}
	if radius <= 0 {
		return nil, errors.Wrapf(core.ErrInvalidGeometry, "sphere: radius must be positive, got %v", radius)
	}
	return &Sphere{Center: center, Radius: radius}, nil
}

// Intersect returns the nearer root of the ray-sphere quadratic when it is
// positive and otherwise the farther one, so rays starting inside report the
// exit distance.
func (s *Sphere) Intersect(ray core.Ray) (float64, bool) {
	// Quadratic equation coefficients: at² + 2·halfB·t + c = 0
	oc := ray.Origin.Subtract(s.Center)
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 || a == 0 {
		return 0, false
	}

	sqrtD := math.Sqrt(discriminant)
	if near := (-halfB - sqrtD) / a; near > 0 {
		return near, true
	}
	if far := (-halfB + sqrtD) / a; far >= 0 {
		return far, true
	}
	return 0, false
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(s.Center.Subtract(radius), s.Center.Add(radius))
}

// Kind returns KindSphere
func (s *Sphere) Kind() Kind { return KindSphere }

// Shapes returns the sphere itself
func (s *Sphere) Shapes() []Shape { return []Shape{s} }

// Triangles tessellates the sphere with marching cubes
func (s *Sphere) Triangles() []Triangle {
	solid, err := sdf.Sphere3D(s.Radius)
	if err != nil {
		// radius is validated by NewSphere
		return nil
	}
	solid = sdf.Transform3D(solid, sdf.Translate3d(toV3(s.Center)))

	mesh := render.ToTriangles(solid, render.NewMarchingCubesUniform(sphereMeshCells))
	triangles := make([]Triangle, 0, len(mesh))
	for _, tri := range mesh {
		triangles = append(triangles, NewTriangle(fromV3(tri[0]), fromV3(tri[1]), fromV3(tri[2])))
	}
	return triangles
}

func (s *Sphere) primitive() {}
