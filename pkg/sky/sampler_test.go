package sky

import (
	"math"
	"testing"

	"github.com/df07/go-sky-ratio/pkg/core"
)

func TestClampResolution(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{10, 10},
		{180, 180},
		{0.25, 0.25},
		{0, DefaultResolution},
		{-5, DefaultResolution},
		{180.5, DefaultResolution},
		{math.NaN(), DefaultResolution},
		{math.Inf(1), DefaultResolution},
	}

	for _, tt := range tests {
		if got := ClampResolution(tt.input); got != tt.expected {
			t.Errorf("ClampResolution(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestDiscretize(t *testing.T) {
	tests := []struct {
		resolution float64
		thetaSteps int
		phiSteps   int
		rayCount   int
	}{
		{10, 9, 36, 1 + 9*36},
		{5, 18, 72, 1 + 18*72},
		{1, 90, 360, 1 + 90*360},
		{7, 12, 51, 1 + 12*51},
		{90, 1, 4, 5},
		{180, 0, 2, 1},
		{0, 90, 360, 1 + 90*360}, // clamped to the default
	}

	for _, tt := range tests {
		grid := Discretize(tt.resolution)
		if grid.ThetaSteps != tt.thetaSteps || grid.PhiSteps != tt.phiSteps {
			t.Errorf("Discretize(%v) = %+v, want theta=%d phi=%d", tt.resolution, grid, tt.thetaSteps, tt.phiSteps)
		}
		if grid.RayCount() != tt.rayCount {
			t.Errorf("Discretize(%v).RayCount() = %d, want %d", tt.resolution, grid.RayCount(), tt.rayCount)
		}
		if n := len(grid.Directions()); n != tt.rayCount {
			t.Errorf("Discretize(%v) emitted %d directions, want %d", tt.resolution, n, tt.rayCount)
		}
	}
}

func TestGrid_WeightsCoverHemisphere(t *testing.T) {
	// Every ring's weight times the rays it holds must add up to π
	for _, res := range []float64{180, 90, 45, 10, 7, 5, 3.3, 1} {
		grid := Discretize(res)
		total := 0.0
		for ring := 0; ring < grid.Rings(); ring++ {
			rays := grid.PhiSteps
			if ring == 0 {
				rays = 1
			}
			total += grid.RingWeight(ring) * grid.RingAzimuth(ring) * float64(rays)
		}
		if math.Abs(total-math.Pi) > 1e-9 {
			t.Errorf("resolution %v: weights sum to %v, want π", res, total)
		}
	}
}

func TestGrid_Directions(t *testing.T) {
	grid := Discretize(90)
	directions := grid.Directions()

	expected := []core.Vec3{
		core.NewVec3(0, 0, 1),
		core.NewVec3(1, 0, 0),
		core.NewVec3(0, 1, 0),
		core.NewVec3(-1, 0, 0),
		core.NewVec3(0, -1, 0),
	}
	for i, want := range expected {
		if directions[i].Subtract(want).Length() > 1e-12 {
			t.Errorf("direction %d = %v, want %v", i, directions[i], want)
		}
	}

	for i, d := range Discretize(5).Directions() {
		if math.Abs(d.Length()-1) > 1e-12 {
			t.Fatalf("direction %d is not unit length: %v", i, d)
		}
		if d.Z < -1e-12 {
			t.Fatalf("direction %d points below the horizon: %v", i, d)
		}
	}
}

func TestGrid_RingOf(t *testing.T) {
	grid := Discretize(10)
	tests := []struct{ index, ring int }{
		{0, 0},
		{1, 1},
		{36, 1},
		{37, 2},
		{grid.RayCount() - 1, grid.ThetaSteps},
	}
	for _, tt := range tests {
		if got := grid.RingOf(tt.index); got != tt.ring {
			t.Errorf("RingOf(%d) = %d, want %d", tt.index, got, tt.ring)
		}
	}
}

func TestGenerateRays_Deterministic(t *testing.T) {
	checkpoint := core.NewVec3(3, -2, 1.5)
	first := GenerateRays(checkpoint, 5)
	second := GenerateRays(checkpoint, 5)

	if len(first) != len(second) {
		t.Fatalf("Expected identical lengths, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Ray %d differs between runs: %v vs %v", i, first[i], second[i])
		}
		if first[i].Origin != checkpoint {
			t.Fatalf("Ray %d does not start at the checkpoint", i)
		}
	}

	// Out-of-range resolution is clamped locally
	if n := len(GenerateRays(checkpoint, -1)); n != Discretize(DefaultResolution).RayCount() {
		t.Errorf("Expected default resolution ray count, got %d", n)
	}
}
