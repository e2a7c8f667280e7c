package server

import (
	"math"
	"net/http"

	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/scene"
	"github.com/df07/go-sky-ratio/pkg/sky"
)

// RingInspect is the visibility of one elevation ring of the hemisphere grid
type RingInspect struct {
	Ring      int     `json:"ring"`
	Elevation float64 `json:"elevation"` // Degrees above the horizon
	Open      int     `json:"open"`      // Unblocked rays in the ring
	Total     int     `json:"total"`
	Weight    float64 `json:"weight"` // Projected area of one cell in the ring
}

// InspectResponse represents the JSON response for point inspection
type InspectResponse struct {
	Point      [3]float64    `json:"point"`
	Resolution float64       `json:"resolution"`
	RayCount   int           `json:"rayCount"`
	Ratio      float64       `json:"ratio"`      // Solid-angle weighted
	CountRatio float64       `json:"countRatio"` // Unweighted fraction of open rays
	Rings      []RingInspect `json:"rings"`
	Zenith     ZenithHit     `json:"zenith"`
}

// ZenithHit describes the first obstruction straight up, if any
type ZenithHit struct {
	Hit      bool       `json:"hit"`
	Point    [3]float64 `json:"point"`
	Distance float64    `json:"distance"`
}

// inspectPoint casts the full hemisphere grid from point and breaks the
// result down per ring
func inspectPoint(s *scene.Scene, point core.Vec3, resolution float64) (*InspectResponse, error) {
	grid := sky.Discretize(resolution)
	directions := grid.Directions()
	origins := make([]core.Vec3, len(directions))
	for i := range origins {
		origins[i] = point
	}

	results, err := s.Raycast(origins, directions)
	if err != nil {
		return nil, err
	}

	hits := make([]bool, len(results))
	for i, result := range results {
		hits[i] = result.Hit
	}
	ratio, err := sky.Integrate(grid, hits)
	if err != nil {
		return nil, err
	}

	rings := make([]RingInspect, grid.Rings())
	for t := range rings {
		rings[t] = RingInspect{
			Ring:      t,
			Elevation: 90 - float64(t)*grid.Resolution,
			Weight:    grid.RingWeight(t) * grid.RingAzimuth(t),
		}
	}
	for i, hit := range hits {
		ring := &rings[grid.RingOf(i)]
		ring.Total++
		if !hit {
			ring.Open++
		}
	}

	zenith := results[0]
	return &InspectResponse{
		Point:      [3]float64{point.X, point.Y, point.Z},
		Resolution: grid.Resolution,
		RayCount:   grid.RayCount(),
		Ratio:      ratio,
		CountRatio: sky.CountRatio(hits),
		Rings:      rings,
		Zenith: ZenithHit{
			Hit:      zenith.Hit,
			Point:    [3]float64{zenith.Position.X, zenith.Position.Y, zenith.Position.Z},
			Distance: zenith.Distance,
		},
	}, nil
}

// handleInspect reports the per-ring sky visibility of a single point
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseEvalRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	values := r.URL.Query()
	var coords [3]float64
	for i, key := range []string{"x", "y", "z"} {
		if coords[i], err = parseFloatParam(values, key, 0, -math.MaxFloat64, math.MaxFloat64); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	eval, err := s.setupEvaluation(req, nil)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	response, err := inspectPoint(eval.Source.Scene, core.NewVec3(coords[0], coords[1], coords[2]), eval.Checker.Resolution())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, response)
}
