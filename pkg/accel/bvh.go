package accel

import (
	"fmt"
	"math"
	"sort"

	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/geometry"
)

// BVHAccelerator compiles shapes into a bounding volume hierarchy
type BVHAccelerator struct{}

// Name returns "bvh"
func (BVHAccelerator) Name() string { return NameBVH }

// SupportsRotation is always true: leaves use the exact shape test
func (BVHAccelerator) SupportsRotation() bool { return true }

// Compile builds a BVH over shapes
func (BVHAccelerator) Compile(shapes []geometry.Shape) (Structure, error) {
	return NewBVH(shapes), nil
}

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Shapes      []geometry.Shape // Multiple shapes for leaf nodes (nil for internal nodes)
}

// BVH represents a Bounding Volume Hierarchy for fast ray-object intersection
type BVH struct {
	Root  *BVHNode
	count int
}

// NewBVH constructs a BVH from a slice of shapes
func NewBVH(shapes []geometry.Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{Root: nil}
	}

	// Sorting happens in place, so build from a copy
	return &BVH{
		Root:  buildBVH(copyShapes(shapes)),
		count: len(shapes),
	}
}

// Leaf threshold: if we have this many or fewer shapes, store them in a leaf node
const leafThreshold = 8

// buildBVH recursively builds the BVH with a median split on the longest axis
func buildBVH(shapes []geometry.Shape) *BVHNode {
	boundingBox := shapes[0].BoundingBox()
	for i := 1; i < len(shapes); i++ {
		boundingBox = boundingBox.Union(shapes[i].BoundingBox())
	}

	if len(shapes) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Shapes:      shapes,
		}
	}

	axis := boundingBox.LongestAxis()
	sortShapesByAxis(shapes, axis)

	mid := len(shapes) / 2
	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(shapes[:mid]),
		Right:       buildBVH(shapes[mid:]),
	}
}

// sortShapesByAxis sorts shapes by their bounding box center along the specified axis
func sortShapesByAxis(shapes []geometry.Shape, axis int) {
	sort.SliceStable(shapes, func(i, j int) bool {
		return shapes[i].BoundingBox().Center().Axis(axis) < shapes[j].BoundingBox().Center().Axis(axis)
	})
}

// Nearest returns the closest hit distance over all shapes in the BVH
func (bvh *BVH) Nearest(ray core.Ray) (float64, bool) {
	if bvh.Root == nil {
		return 0, false
	}
	return bvh.hitNode(bvh.Root, ray, math.Inf(1))
}

// Len returns the number of shapes in the BVH
func (bvh *BVH) Len() int {
	return bvh.count
}

// hitNode recursively tests ray intersection with BVH nodes, ignoring
// anything farther than closest
func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray, closest float64) (float64, bool) {
	if !node.BoundingBox.Hit(ray, 0, closest) {
		return 0, false
	}

	hitAnything := false

	if node.Shapes != nil {
		for _, shape := range node.Shapes {
			if t, ok := shape.Intersect(ray); ok && t < closest {
				hitAnything = true
				closest = t
			}
		}
		return closest, hitAnything
	}

	if node.Left != nil {
		if t, ok := bvh.hitNode(node.Left, ray, closest); ok {
			hitAnything = true
			closest = t
		}
	}
	if node.Right != nil {
		if t, ok := bvh.hitNode(node.Right, ray, closest); ok {
			hitAnything = true
			closest = t
		}
	}

	return closest, hitAnything
}

// Stats walks the tree and reports its shape
func (bvh *BVH) Stats() BVHStats {
	if bvh.Root == nil {
		return BVHStats{}
	}

	stats := BVHStats{}
	bvh.collectStats(bvh.Root, 0, &stats)

	// Average over leaves once all depths are summed
	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}

	return stats
}

// Describe summarizes the tree for build logs
func (bvh *BVH) Describe() string {
	return bvh.Stats().String()
}

// BVHStats contains statistics about the BVH structure
type BVHStats struct {
	TotalNodes  int
	LeafNodes   int
	MaxDepth    int
	AvgDepth    float64
	TotalShapes int
}

func (s BVHStats) String() string {
	return fmt.Sprintf("BVH: %d nodes, %d leaves, max depth %d, avg leaf depth %.1f",
		s.TotalNodes, s.LeafNodes, s.MaxDepth, s.AvgDepth)
}

// collectStats recursively collects statistics about the BVH
func (bvh *BVH) collectStats(node *BVHNode, depth int, stats *BVHStats) {
	stats.TotalNodes++

	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	if node.Shapes != nil {
		stats.LeafNodes++
		stats.TotalShapes += len(node.Shapes)
		stats.AvgDepth += float64(depth)
		return
	}

	if node.Left != nil {
		bvh.collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		bvh.collectStats(node.Right, depth+1, stats)
	}
}
