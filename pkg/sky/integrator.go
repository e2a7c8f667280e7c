package sky

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/df07/go-sky-ratio/pkg/core"
)

// Method selects how hits are turned into a ratio
type Method int

const (
	// MethodSolidAngle weights each unblocked ray by its cell's projected area
	MethodSolidAngle Method = iota
	// MethodRayCount is the unweighted fraction of unblocked rays. It
	// over-weights the zenith and is kept only for comparison.
	MethodRayCount
)

func (m Method) String() string {
	switch m {
	case MethodSolidAngle:
		return "solid_angle"
	case MethodRayCount:
		return "ray_count"
	}
	return "unknown"
}

// ParseMethod parses "solid_angle" or "ray_count"; empty means solid angle
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "solid_angle":
		return MethodSolidAngle, nil
	case "ray_count":
		return MethodRayCount, nil
	}
	return 0, errors.Wrapf(core.ErrUnsupportedFeature, "unknown sky ratio method %q", s)
}

// Integrate sums the projected area of unblocked rays and divides by π.
// hits must be index-aligned with grid.Directions().
func Integrate(grid Grid, hits []bool) (float64, error) {
	if len(hits) != grid.RayCount() {
		return 0, errors.Wrapf(core.ErrLengthMismatch, "%d hits for %d rays", len(hits), grid.RayCount())
	}

	skyArea := 0.0
	for t := 0; t < grid.Rings(); t++ {
		weight := grid.RingWeight(t) * grid.RingAzimuth(t)
		if weight == 0 {
			continue
		}
		first, last := ringSpan(grid, t)
		open := lo.CountBy(hits[first:last], func(hit bool) bool { return !hit })
		skyArea += weight * float64(open)
	}

	// Rounding can push an unobstructed sum a few ulps past π
	return math.Max(0, math.Min(1, skyArea/math.Pi)), nil
}

// ringSpan returns the [first, last) index range of ring t in Directions order
func ringSpan(grid Grid, t int) (int, int) {
	if t == 0 {
		return 0, 1
	}
	first := 1 + (t-1)*grid.PhiSteps
	return first, first + grid.PhiSteps
}

// CountRatio returns the fraction of rays that hit nothing. With no rays the
// sky is fully open.
func CountRatio(hits []bool) float64 {
	if len(hits) == 0 {
		return 1
	}
	return float64(lo.Count(hits, false)) / float64(len(hits))
}
