package accel

import (
	"math"

	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/geometry"
)

// LinearAccelerator compiles shapes into a flat list tested one by one.
// With AxisAlignedOnly set, each shape is first culled by its bounding box
// and rotated boxes are refused.
type LinearAccelerator struct {
	AxisAlignedOnly bool
}

// Name returns "linear" or "linear_aabb"
func (a LinearAccelerator) Name() string {
	if a.AxisAlignedOnly {
		return NameLinearAABB
	}
	return NameLinear
}

// SupportsRotation is false in axis-aligned-only mode
func (a LinearAccelerator) SupportsRotation() bool {
	return !a.AxisAlignedOnly
}

// Compile copies shapes into a LinearScan
func (a LinearAccelerator) Compile(shapes []geometry.Shape) (Structure, error) {
	if a.AxisAlignedOnly {
		for i, shape := range shapes {
			if r, ok := shape.(rotatable); ok && r.IsRotated() {
				return nil, errors.Wrapf(core.ErrUnsupportedFeature, "shape %d: %s cannot intersect rotated boxes", i, a.Name())
			}
		}
	}
	return &LinearScan{shapes: copyShapes(shapes), cull: a.AxisAlignedOnly}, nil
}

// LinearScan tests every shape against every ray
type LinearScan struct {
	shapes []geometry.Shape
	cull   bool
}

// Nearest returns the closest hit over all shapes
func (l *LinearScan) Nearest(ray core.Ray) (float64, bool) {
	if !l.cull {
		return geometry.Intersect(l.shapes, ray)
	}

	closest := math.Inf(1)
	hitAnything := false
	for _, shape := range l.shapes {
		if !shape.BoundingBox().Hit(ray, 0, closest) {
			continue
		}
		if t, ok := shape.Intersect(ray); ok && t < closest {
			closest = t
			hitAnything = true
		}
	}
	if !hitAnything {
		return 0, false
	}
	return closest, true
}

// Len returns the number of shapes
func (l *LinearScan) Len() int {
	return len(l.shapes)
}
