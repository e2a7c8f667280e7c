// Package accel compiles geometry into structures that answer nearest-hit
// ray queries.
package accel

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/geometry"
)

// Structure is a compiled, read-only set of shapes. Nearest returns the
// smallest non-negative distance along ray at which any shape is hit.
// Structures are safe for concurrent queries.
type Structure interface {
	Nearest(ray core.Ray) (float64, bool)
	Len() int
}

// Describer is implemented by structures that can summarize their layout
type Describer interface {
	Describe() string
}

// Accelerator builds Structures from shapes
type Accelerator interface {
	Name() string
	// SupportsRotation reports whether oriented boxes are intersected exactly.
	SupportsRotation() bool
	Compile(shapes []geometry.Shape) (Structure, error)
}

// Accelerator names accepted by ByName
const (
	NameBVH        = "bvh"
	NameRTree      = "rtree"
	NameLinear     = "linear"
	NameLinearAABB = "linear_aabb"
)

// Names lists the accelerators known to ByName
func Names() []string {
	return []string{NameBVH, NameRTree, NameLinear, NameLinearAABB}
}

// ByName returns the accelerator registered under name. The empty name
// selects the BVH.
func ByName(name string) (Accelerator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameBVH:
		return BVHAccelerator{}, nil
	case NameRTree:
		return RTreeAccelerator{}, nil
	case NameLinear:
		return LinearAccelerator{}, nil
	case NameLinearAABB:
		return LinearAccelerator{AxisAlignedOnly: true}, nil
	default:
		return nil, errors.Wrapf(core.ErrUnsupportedFeature, "unknown accelerator %q (want one of %s)",
			name, strings.Join(Names(), ", "))
	}
}

// rotatable is implemented by shapes that may carry an orientation
type rotatable interface {
	IsRotated() bool
}

func copyShapes(shapes []geometry.Shape) []geometry.Shape {
	shapesCopy := make([]geometry.Shape, len(shapes))
	copy(shapesCopy, shapes)
	return shapesCopy
}
