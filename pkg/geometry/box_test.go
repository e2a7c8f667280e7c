package geometry

import (
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/core"
)

func TestNewAxisAlignedBox(t *testing.T) {
	center := core.NewVec3(1, 2, 3)
	size := core.NewVec3(2, 4, 6)

	box, err := NewAxisAlignedBox(center, size)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if box.Center != center {
		t.Errorf("Expected center %v, got %v", center, box.Center)
	}
	if box.IsRotated() {
		t.Error("Expected axis-aligned box to not be rotated")
	}

	bbox := box.BoundingBox()
	if bbox.Min != core.NewVec3(0, 0, 0) || bbox.Max != core.NewVec3(2, 4, 6) {
		t.Errorf("Unexpected bounding box %v", bbox)
	}
}

func TestNewBox_InvalidSize(t *testing.T) {
	tests := []struct {
		name string
		size core.Vec3
	}{
		{"Zero X", core.NewVec3(0, 1, 1)},
		{"Negative Y", core.NewVec3(1, -1, 1)},
		{"Zero Z", core.NewVec3(1, 1, 0)},
		{"NaN", core.NewVec3(math.NaN(), 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBox(core.Vec3{}, tt.size, core.Vec3{})
			if !errors.Is(err, core.ErrInvalidGeometry) {
				t.Errorf("Expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

func TestBox_Intersect_AxisAligned(t *testing.T) {
	// 2x2x2 box centered at origin
	box, err := NewAxisAlignedBox(core.NewVec3(0, 0, 0), core.NewVec3(2, 2, 2))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		ray       core.Ray
		shouldHit bool
		expectedT float64
	}{
		{
			name:      "Ray hits front face",
			ray:       core.NewRay(core.NewVec3(0, 0, -3), core.NewVec3(0, 0, 1)),
			shouldHit: true,
			expectedT: 2.0,
		},
		{
			name:      "Ray hits left face",
			ray:       core.NewRay(core.NewVec3(-3, 0.5, 0.5), core.NewVec3(1, 0, 0)),
			shouldHit: true,
			expectedT: 2.0,
		},
		{
			name:      "Distance in units of direction magnitude",
			ray:       core.NewRay(core.NewVec3(0, 0, -3), core.NewVec3(0, 0, 2)),
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Ray misses box",
			ray:       core.NewRay(core.NewVec3(0, 3, -3), core.NewVec3(0, 0, 1)),
			shouldHit: false,
		},
		{
			name:      "Ray inside box reports exit distance",
			ray:       core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0)),
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Box behind origin",
			ray:       core.NewRay(core.NewVec3(0, 0, 3), core.NewVec3(0, 0, 1)),
			shouldHit: false,
		},
		{
			name:      "Parallel ray outside slab",
			ray:       core.NewRay(core.NewVec3(2, 0, -3), core.NewVec3(0, 0, 1)),
			shouldHit: false,
		},
		{
			name:      "Parallel ray on slab boundary",
			ray:       core.NewRay(core.NewVec3(1, 0, -3), core.NewVec3(0, 0, 1)),
			shouldHit: true,
			expectedT: 2.0,
		},
		{
			name:      "Origin on exit face heading out",
			ray:       core.NewRay(core.NewVec3(1, 0, 0), core.NewVec3(1, 0, 0)),
			shouldHit: true,
			expectedT: 0.0,
		},
		{
			name:      "Diagonal ray",
			ray:       core.NewRay(core.NewVec3(-3, -3, -3), core.NewVec3(1, 1, 1)),
			shouldHit: true,
			expectedT: 2.0,
		},
		{
			name:      "Diagonal ray passing beside the box",
			ray:       core.NewRay(core.NewVec3(-3, 0, 2), core.NewVec3(1, 0, 1)),
			shouldHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, hit := box.Intersect(tt.ray)
			if hit != tt.shouldHit {
				t.Fatalf("Expected hit=%v, got %v (t=%v)", tt.shouldHit, hit, dist)
			}
			if hit && math.Abs(dist-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%v, got %v", tt.expectedT, dist)
			}
		})
	}
}

func TestBox_Intersect_Rotated(t *testing.T) {
	// A 4x1x1 bar turned 90° around Z lies along the Y axis
	bar, err := NewBox(core.Vec3{}, core.NewVec3(4, 1, 1), core.NewVec3(0, 0, math.Pi/2))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bar.IsRotated() {
		t.Fatal("Expected bar to be rotated")
	}

	if dist, hit := bar.Intersect(core.NewRay(core.NewVec3(0, -5, 0), core.NewVec3(0, 1, 0))); !hit || math.Abs(dist-3) > 1e-9 {
		t.Errorf("Expected hit at 3 along +Y, got hit=%v t=%v", hit, dist)
	}
	if dist, hit := bar.Intersect(core.NewRay(core.NewVec3(-5, 0, 0), core.NewVec3(1, 0, 0))); !hit || math.Abs(dist-4.5) > 1e-9 {
		t.Errorf("Expected hit at 4.5 along +X, got hit=%v t=%v", hit, dist)
	}
	if _, hit := bar.Intersect(core.NewRay(core.NewVec3(1.5, -5, 0), core.NewVec3(0, 1, 0))); hit {
		t.Error("Expected miss beside the rotated bar")
	}

	// A cube turned 45° around Z presents an edge toward -X
	cube, err := NewBox(core.Vec3{}, core.NewVec3(2, 2, 2), core.NewVec3(0, 0, math.Pi/4))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	dist, hit := cube.Intersect(core.NewRay(core.NewVec3(-5, 0, 0), core.NewVec3(1, 0, 0)))
	if !hit || math.Abs(dist-(5-math.Sqrt2)) > 1e-9 {
		t.Errorf("Expected hit at %v, got hit=%v t=%v", 5-math.Sqrt2, hit, dist)
	}

	bbox := cube.BoundingBox()
	if math.Abs(bbox.Max.X-math.Sqrt2) > 1e-9 || math.Abs(bbox.Max.Z-1) > 1e-9 {
		t.Errorf("Unexpected rotated bounding box %v", bbox)
	}
}

func TestBox_Triangles(t *testing.T) {
	box, err := NewAxisAlignedBox(core.NewVec3(0, 0, 0), core.NewVec3(2, 2, 2))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	triangles := box.Triangles()
	if len(triangles) != 12 {
		t.Fatalf("Expected 12 triangles, got %d", len(triangles))
	}

	// Every face normal points away from the center
	for i, tri := range triangles {
		centroid := tri.V0.Add(tri.V1).Add(tri.V2).Multiply(1.0 / 3.0)
		if tri.Normal().Dot(centroid) <= 0 {
			t.Errorf("Triangle %d normal %v points inward", i, tri.Normal())
		}
	}
}

func TestRotation_ApplyUnapply(t *testing.T) {
	tests := []struct {
		name     string
		euler    core.Vec3
		vector   core.Vec3
		expected core.Vec3
	}{
		{"No rotation", core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(1, 0, 0)},
		{"90 degrees around Z", core.NewVec3(0, 0, math.Pi/2), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)},
		{"90 degrees around Y", core.NewVec3(0, math.Pi/2, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, -1)},
		{"90 degrees around X", core.NewVec3(math.Pi/2, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(0, 0, 1)},
		{"Z then X", core.NewVec3(math.Pi/2, 0, math.Pi/2), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rot := NewRotation(tt.euler)
			result := rot.Apply(tt.vector)

			const tolerance = 1e-9
			if result.Subtract(tt.expected).Length() > tolerance {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
			if back := rot.Unapply(result); back.Subtract(tt.vector).Length() > tolerance {
				t.Errorf("Expected round trip to %v, got %v", tt.vector, back)
			}
		})
	}
}
