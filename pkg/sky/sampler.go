// Package sky estimates the fraction of the sky hemisphere visible from a
// point by casting rays on a regular (θ, φ) grid and weighting each
// unblocked ray by the projected solid angle of its cell.
package sky

import (
	"math"

	"github.com/df07/go-sky-ratio/pkg/core"
)

const (
	// DefaultResolution replaces any resolution outside (0, MaxResolution]
	DefaultResolution = 1.0
	// MaxResolution is the coarsest accepted angular step in degrees
	MaxResolution = 180.0
)

// ValidResolution reports whether res lies in (0, MaxResolution]
func ValidResolution(res float64) bool {
	return res > 0 && res <= MaxResolution
}

// ClampResolution returns res when valid and DefaultResolution otherwise.
// NaN is invalid.
func ClampResolution(res float64) float64 {
	if !ValidResolution(res) {
		return DefaultResolution
	}
	return res
}

// Grid is the hemisphere discretization for one angular resolution. Ring 0
// is the zenith and holds a single ray; rings 1..ThetaSteps hold PhiSteps
// rays each.
type Grid struct {
	Resolution float64 // degrees
	ThetaSteps int
	PhiSteps   int
}

// Discretize builds the grid for resolution, clamping it first
func Discretize(resolution float64) Grid {
	resolution = ClampResolution(resolution)
	phiSteps := int(math.Floor(360 / resolution))
	if phiSteps < 1 {
		phiSteps = 1
	}
	return Grid{
		Resolution: resolution,
		ThetaSteps: int(math.Floor(90 / resolution)),
		PhiSteps:   phiSteps,
	}
}

// Rings returns the number of rings including the zenith
func (g Grid) Rings() int {
	return g.ThetaSteps + 1
}

// RayCount returns the number of directions the grid emits
func (g Grid) RayCount() int {
	return 1 + g.ThetaSteps*g.PhiSteps
}

// Delta returns the ring spacing in radians
func (g Grid) Delta() float64 {
	return g.Resolution * math.Pi / 180
}

// RingWeight returns the projected area per unit azimuth of ring t,
// (sin²θend − sin²θstart)/2 with θend capped at the horizon.
func (g Grid) RingWeight(t int) float64 {
	delta := g.Delta()
	start := float64(t) * delta
	end := math.Min(float64(t+1)*delta, math.Pi/2)
	if start >= end {
		return 0
	}
	sinStart := math.Sin(start)
	sinEnd := math.Sin(end)
	return (sinEnd*sinEnd - sinStart*sinStart) / 2
}

// RingAzimuth returns the azimuth span one ray of ring t stands for
func (g Grid) RingAzimuth(t int) float64 {
	if t == 0 {
		return 2 * math.Pi
	}
	return 2 * math.Pi / float64(g.PhiSteps)
}

// RingOf returns the ring holding the ray at index i of Directions
func (g Grid) RingOf(i int) int {
	if i == 0 {
		return 0
	}
	return 1 + (i-1)/g.PhiSteps
}

// Directions returns the unit ray directions, zenith first, then ring by
// ring with azimuth increasing from +X toward +Y. Z is up.
func (g Grid) Directions() []core.Vec3 {
	delta := g.Delta()
	dPhi := 2 * math.Pi / float64(g.PhiSteps)

	directions := make([]core.Vec3, 0, g.RayCount())
	directions = append(directions, core.NewVec3(0, 0, 1))
	for t := 1; t <= g.ThetaSteps; t++ {
		theta := float64(t) * delta
		sinTheta, cosTheta := math.Sincos(theta)
		for p := 0; p < g.PhiSteps; p++ {
			sinPhi, cosPhi := math.Sincos(float64(p) * dPhi)
			directions = append(directions, core.NewVec3(sinTheta*cosPhi, sinTheta*sinPhi, cosTheta))
		}
	}
	return directions
}

// GenerateRays returns the hemisphere rays leaving checkpoint at the given
// resolution. Identical inputs always produce the identical sequence.
func GenerateRays(checkpoint core.Vec3, resolution float64) []core.Ray {
	directions := Discretize(resolution).Directions()
	rays := make([]core.Ray, len(directions))
	for i, d := range directions {
		rays[i] = core.NewRay(checkpoint, d)
	}
	return rays
}
