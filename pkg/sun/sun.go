// Package sun computes direct-sun exposure of checkpoints by casting shadow
// rays toward the sun through the same scene used for sky ratios.
package sun

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sixdouglas/suncalc"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/scene"
)

// Position is the sun in horizontal coordinates
type Position struct {
	Time time.Time

	// Altitude in degrees, -90 to 90, 0 at the horizon
	Altitude float64

	// Azimuth in degrees, 0 to 360, 0 north and 90 east
	Azimuth float64
}

// At returns the sun position at t for a location in degrees, north and
// east positive.
func At(t time.Time, latitude, longitude float64) Position {
	p := suncalc.GetPosition(t, latitude, longitude)
	// suncalc reports radians with azimuth measured from south, -90 east
	const rad2deg = 180 / math.Pi
	return Position{
		Time:     t,
		Altitude: p.Altitude * rad2deg,
		Azimuth:  math.Mod(p.Azimuth*rad2deg+180+360, 360),
	}
}

// AboveHorizon reports whether the sun is up
func (p Position) AboveHorizon() bool {
	return p.Altitude > 0
}

// Direction returns the unit vector toward the sun with X east, Y north
// and Z up.
func (p Position) Direction() core.Vec3 {
	const deg2rad = math.Pi / 180
	al := p.Altitude * deg2rad
	az := p.Azimuth * deg2rad
	d := r3.Unit(r3.Vec{
		X: math.Sin(az) * math.Cos(al),
		Y: math.Cos(az) * math.Cos(al),
		Z: math.Sin(al),
	})
	return core.NewVec3(d.X, d.Y, d.Z)
}

// Times returns the instants from the start of date's day, in date's
// location, up to the end of that day in steps of step.
func Times(date time.Time, step time.Duration) ([]time.Time, error) {
	if step <= 0 {
		return nil, errors.Errorf("sun: step must be positive, got %v", step)
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.AddDate(0, 0, 1)

	var times []time.Time
	for t := start; t.Before(end); t = t.Add(step) {
		times = append(times, t)
	}
	return times, nil
}

// Raycaster is the part of a built scene exposure needs
type Raycaster interface {
	Raycast(origins, directions []core.Vec3) ([]scene.HitResult, error)
}

// Sample is the sun at one instant as seen from one checkpoint
type Sample struct {
	Position
	Lit bool // Sun is up and nothing blocks the ray toward it
}

// Result is the exposure of one checkpoint over a set of instants
type Result struct {
	Checkpoint core.Vec3
	Samples    []Sample
	Daylight   int // Samples with the sun above the horizon
	Lit        int // Daylight samples not in shadow
}

// LitFraction returns Lit / Daylight, or 0 when the sun never rose
func (r Result) LitFraction() float64 {
	if r.Daylight == 0 {
		return 0
	}
	return float64(r.Lit) / float64(r.Daylight)
}

// Exposure casts one shadow ray per checkpoint and daylight instant and
// reports, in checkpoint order, which instants are in direct sun.
func Exposure(s Raycaster, checkpoints []core.Vec3, latitude, longitude float64, times []time.Time) ([]Result, error) {
	positions := make([]Position, len(times))
	var directions []core.Vec3
	for i, t := range times {
		positions[i] = At(t, latitude, longitude)
		if positions[i].AboveHorizon() {
			directions = append(directions, positions[i].Direction())
		}
	}

	results := make([]Result, len(checkpoints))
	for c, cp := range checkpoints {
		origins := make([]core.Vec3, len(directions))
		for i := range origins {
			origins[i] = cp
		}
		hits, err := s.Raycast(origins, directions)
		if err != nil {
			return nil, errors.Wrapf(err, "checkpoint %d", c)
		}

		result := Result{Checkpoint: cp, Samples: make([]Sample, len(positions))}
		next := 0
		for i, p := range positions {
			result.Samples[i] = Sample{Position: p}
			if !p.AboveHorizon() {
				continue
			}
			result.Daylight++
			if !hits[next].Hit {
				result.Samples[i].Lit = true
				result.Lit++
			}
			next++
		}
		results[c] = result
	}
	return results, nil
}
