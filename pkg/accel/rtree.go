package accel

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/geometry"
)

const (
	// rtreeMinChildren and rtreeMaxChildren bound the node fan-out
	rtreeMinChildren = 4
	rtreeMaxChildren = 16

	// rtreeSegments is how many pieces a ray is cut into inside the scene bounds
	rtreeSegments = 16

	// rtreePadding grows every rectangle; rtreego treats touching rectangles
	// as disjoint and flat shapes have zero-length sides
	rtreePadding = 1e-6
)

// RTreeAccelerator compiles shapes into an R-tree of their bounding boxes
type RTreeAccelerator struct{}

// Name returns "rtree"
func (RTreeAccelerator) Name() string { return NameRTree }

// SupportsRotation is always true: candidates use the exact shape test
func (RTreeAccelerator) SupportsRotation() bool { return true }

// Compile bulk-loads an R-tree over shapes
func (RTreeAccelerator) Compile(shapes []geometry.Shape) (Structure, error) {
	return NewRTree(shapes), nil
}

// rtreeEntry adapts a shape to rtreego.Spatial
type rtreeEntry struct {
	shape geometry.Shape
	rect  rtreego.Rect
}

func (e *rtreeEntry) Bounds() rtreego.Rect {
	return e.rect
}

// RTree answers ray queries by walking the ray through the scene in
// segments and testing the shapes whose boxes overlap each segment, nearest
// segment first.
type RTree struct {
	tree   *rtreego.Rtree
	bounds core.AABB
	count  int
}

// NewRTree constructs an RTree from a slice of shapes
func NewRTree(shapes []geometry.Shape) *RTree {
	if len(shapes) == 0 {
		return &RTree{}
	}

	objs := make([]rtreego.Spatial, len(shapes))
	bounds := shapes[0].BoundingBox()
	for i, shape := range shapes {
		bbox := shape.BoundingBox()
		bounds = bounds.Union(bbox)
		objs[i] = &rtreeEntry{shape: shape, rect: toRect(bbox.Min, bbox.Max)}
	}

	return &RTree{
		tree:   rtreego.NewTree(3, rtreeMinChildren, rtreeMaxChildren, objs...),
		bounds: bounds.Expand(rtreePadding),
		count:  len(shapes),
	}
}

// Len returns the number of shapes in the tree
func (r *RTree) Len() int {
	return r.count
}

// Nearest returns the closest hit distance. A hit inside segment k is final
// once every segment up to k has been searched, because any closer hit would
// lie in one of those segments.
func (r *RTree) Nearest(ray core.Ray) (float64, bool) {
	if r.count == 0 || ray.Direction.IsZero() {
		return 0, false
	}

	enter, exit, ok := r.bounds.Interval(ray, 0, math.Inf(1))
	if !ok {
		return 0, false
	}

	tested := make(map[*rtreeEntry]struct{})
	skipTested := func(_ []rtreego.Spatial, obj rtreego.Spatial) (bool, bool) {
		_, seen := tested[obj.(*rtreeEntry)]
		return seen, false
	}

	closest := math.Inf(1)
	hitAnything := false
	step := (exit - enter) / rtreeSegments

	for i := 0; i < rtreeSegments; i++ {
		t0 := enter + step*float64(i)
		t1 := exit
		if i < rtreeSegments-1 {
			t1 = enter + step*float64(i+1)
		}

		for _, obj := range r.tree.SearchIntersect(toRect(ray.At(t0), ray.At(t1)), skipTested) {
			entry := obj.(*rtreeEntry)
			tested[entry] = struct{}{}
			if t, ok := entry.shape.Intersect(ray); ok && t < closest {
				closest = t
				hitAnything = true
			}
		}

		if hitAnything && closest <= t1 {
			break
		}
	}

	if !hitAnything {
		return 0, false
	}
	return closest, true
}

// toRect converts two corners to a padded rtreego rectangle
func toRect(a, b core.Vec3) rtreego.Rect {
	lo := a.Min(b)
	hi := a.Max(b)
	// Both points are three-dimensional so construction cannot fail
	rect, _ := rtreego.NewRectFromPoints(
		rtreego.Point{lo.X - rtreePadding, lo.Y - rtreePadding, lo.Z - rtreePadding},
		rtreego.Point{hi.X + rtreePadding, hi.Y + rtreePadding, hi.Z + rtreePadding},
	)
	return rect
}
