package geometry

import (
	"math"

	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/core"
)

// Box is a rectangular box with optional rotation
type Box struct {
	Center   core.Vec3 // Center point of the box
	Size     core.Vec3 // Full edge lengths along each local axis
	Rotation core.Vec3 // Euler angles in radians (X, Y, Z)

	half    core.Vec3
	rotated bool
	rot     Rotation
	bbox    core.AABB
}

// NewBox creates a box from its center, full size and Euler rotation.
// All size components must be positive.
func NewBox(center, size, rotation core.Vec3) (*Box, error) {
	if !center.IsFinite() || !size.IsFinite() || !rotation.IsFinite() {
		return nil, errors.Wrap(core.ErrInvalidGeometry, "box: non-finite parameter")
	}
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, errors.Wrapf(core.ErrInvalidGeometry, "box: size components must be positive, got %v", size)
	}

	b := &Box{
		Center:   center,
		Size:     size,
		Rotation: rotation,
		half:     size.Multiply(0.5),
		rotated:  !rotation.IsZero(),
	}
	if b.rotated {
		b.rot = NewRotation(rotation)
	}
	corners := b.Corners()
	b.bbox = core.NewAABBFromPoints(corners[:]...)

	return b, nil
}

// NewAxisAlignedBox creates a box without rotation
func NewAxisAlignedBox(center, size core.Vec3) (*Box, error) {
	return NewBox(center, size, core.Vec3{})
}

// IsRotated reports whether any Euler angle is non-zero
func (b *Box) IsRotated() bool {
	return b.rotated
}

// Corners returns the 8 world-space corners. Corner i takes the positive
// half-extent on X, Y and Z when bit 0, 1 and 2 of i is set.
func (b *Box) Corners() [8]core.Vec3 {
	var corners [8]core.Vec3
	for i := range corners {
		local := core.NewVec3(-b.half.X, -b.half.Y, -b.half.Z)
		if i&1 != 0 {
			local.X = b.half.X
		}
		if i&2 != 0 {
			local.Y = b.half.Y
		}
		if i&4 != 0 {
			local.Z = b.half.Z
		}
		if b.rotated {
			local = b.rot.Apply(local)
		}
		corners[i] = local.Add(b.Center)
	}
	return corners
}

// Intersect returns the slab-method distance to the box. Oriented boxes are
// tested in box-local space; the rotation is orthonormal so distances keep
// the units of the world-space direction.
func (b *Box) Intersect(ray core.Ray) (float64, bool) {
	if !b.rotated {
		return slabIntersect(b.Center.Subtract(b.half), b.Center.Add(b.half), ray)
	}

	local := core.NewRay(
		b.rot.Unapply(ray.Origin.Subtract(b.Center)),
		b.rot.Unapply(ray.Direction),
	)
	return slabIntersect(b.half.Negate(), b.half, local)
}

// slabIntersect intersects ray with the box [min, max]. It returns the entry
// distance when positive and otherwise the exit distance, which covers rays
// starting inside the box. Boxes entirely behind the origin are a miss.
func slabIntersect(min, max core.Vec3, ray core.Ray) (float64, bool) {
	tMin, tMax := math.Inf(-1), math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		lo, hi, ok := slab(min.Axis(axis), max.Axis(axis), ray.Origin.Axis(axis), ray.Direction.Axis(axis))
		if !ok {
			return 0, false
		}
		if axis > 0 && (tMin > hi || lo > tMax) {
			return 0, false
		}
		tMin = math.Max(tMin, lo)
		tMax = math.Min(tMax, hi)
	}

	if tMax < 0 {
		return 0, false
	}
	if tMin > 0 {
		return tMin, true
	}
	return tMax, true
}

// slab returns the parametric interval of one axis. A zero direction
// component leaves the axis unconstrained when the origin is inside the slab
// and misses otherwise.
func slab(min, max, origin, direction float64) (float64, float64, bool) {
	if direction == 0 {
		if origin < min || origin > max {
			return 0, 0, false
		}
		return math.Inf(-1), math.Inf(1), true
	}

	t1 := (min - origin) / direction
	t2 := (max - origin) / direction
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return t1, t2, true
}

// BoundingBox returns the axis-aligned bounding box of the (possibly rotated) box
func (b *Box) BoundingBox() core.AABB {
	return b.bbox
}

// Kind returns KindBox
func (b *Box) Kind() Kind { return KindBox }

// Shapes returns the box itself
func (b *Box) Shapes() []Shape { return []Shape{b} }

// boxFaces indexes Corners into 12 outward-facing triangles
var boxFaces = [12][3]int{
	{0, 2, 1}, {1, 2, 3}, // -Z
	{4, 5, 6}, {5, 7, 6}, // +Z
	{0, 4, 2}, {2, 4, 6}, // -X
	{1, 3, 5}, {3, 7, 5}, // +X
	{0, 1, 4}, {1, 5, 4}, // -Y
	{2, 6, 3}, {3, 6, 7}, // +Y
}

// Triangles returns the 12 triangles of the box surface
func (b *Box) Triangles() []Triangle {
	corners := b.Corners()
	triangles := make([]Triangle, 0, len(boxFaces))
	for _, f := range boxFaces {
		triangles = append(triangles, NewTriangle(corners[f[0]], corners[f[1]], corners[f[2]]))
	}
	return triangles
}

func (b *Box) primitive() {}
