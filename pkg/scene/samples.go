package scene

import (
	"math"
	"sort"

	"github.com/df07/go-sky-ratio/pkg/core"
)

// Sample is a built-in scene with the checkpoints and resolution it is
// meant to be evaluated with.
type Sample struct {
	ID          string
	Name        string
	Description string
	Resolution  float64 // degrees
	Checkpoints []core.Vec3

	populate func(s *Scene) error
}

// Populate adds the sample's primitives to s. It does not build s.
func (sm Sample) Populate(s *Scene) error {
	if sm.populate == nil {
		return nil
	}
	return sm.populate(s)
}

// pedestrian is the default checkpoint: 1.5 m above the ground at the origin
var pedestrian = core.NewVec3(0, 0, 1.5)

var samples = map[string]Sample{
	"open": {
		ID:          "open",
		Name:        "Open Field",
		Description: "No obstacles; the whole sky is visible",
		Resolution:  10,
		Checkpoints: []core.Vec3{pedestrian},
	},
	"wall": {
		ID:          "wall",
		Name:        "Wall",
		Description: "A 100 m wall just north of the checkpoint hides about half the sky",
		Resolution:  5,
		Checkpoints: []core.Vec3{pedestrian},
		populate: func(s *Scene) error {
			return s.AddBox(core.NewVec3(0, 2, 50), core.NewVec3(100, 1, 100), core.Vec3{})
		},
	},
	"ring": {
		ID:          "ring",
		Name:        "Distant Ring",
		Description: "40 unit boxes on a 50 m ring at 5 m height",
		Resolution:  5,
		Checkpoints: []core.Vec3{pedestrian},
		populate:    populateRing,
	},
	"courtyard": {
		ID:          "courtyard",
		Name:        "Courtyard",
		Description: "Four 5 m walls enclosing a 20 m x 20 m open courtyard",
		Resolution:  5,
		Checkpoints: []core.Vec3{pedestrian},
		populate:    populateCourtyard,
	},
	"canopy": {
		ID:          "canopy",
		Name:        "Canopy",
		Description: "A 100 m x 100 m slab overhead at 5 m",
		Resolution:  10,
		Checkpoints: []core.Vec3{pedestrian},
		populate: func(s *Scene) error {
			return s.AddBox(core.NewVec3(0, 0, 5), core.NewVec3(100, 100, 2), core.Vec3{})
		},
	},
	"city": {
		ID:          "city",
		Name:        "City Grid",
		Description: "10 x 10 blocks of varying height with checkpoints at street crossings",
		Resolution:  2,
		Checkpoints: []core.Vec3{
			core.NewVec3(0, 0, 1.5),
			core.NewVec3(30, 0, 1.5),
			core.NewVec3(0, 30, 1.5),
			core.NewVec3(90, 90, 1.5),
		},
		populate: populateCity,
	},
}

// Samples returns every built-in sample ordered by ID
func Samples() []Sample {
	list := make([]Sample, 0, len(samples))
	for _, sm := range samples {
		list = append(list, sm)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// LookupSample returns the sample with the given ID
func LookupSample(id string) (Sample, bool) {
	sm, ok := samples[id]
	return sm, ok
}

func populateRing(s *Scene) error {
	const count = 40
	const radius = 50.0
	for i := 0; i < count; i++ {
		angle := 2 * math.Pi * float64(i) / count
		center := core.NewVec3(radius*math.Cos(angle), radius*math.Sin(angle), 5)
		if err := s.AddBox(center, core.NewVec3(1, 1, 1), core.Vec3{}); err != nil {
			return err
		}
	}
	return nil
}

func populateCourtyard(s *Scene) error {
	const (
		inner     = 10.0 // distance from the checkpoint to each wall's inner face
		height    = 5.0
		thickness = 0.5
	)
	offset := inner + thickness/2
	length := 2*inner + 2*thickness

	walls := []struct{ center, size core.Vec3 }{
		{core.NewVec3(0, offset, height/2), core.NewVec3(length, thickness, height)},
		{core.NewVec3(0, -offset, height/2), core.NewVec3(length, thickness, height)},
		{core.NewVec3(offset, 0, height/2), core.NewVec3(thickness, length, height)},
		{core.NewVec3(-offset, 0, height/2), core.NewVec3(thickness, length, height)},
	}
	for _, w := range walls {
		if err := s.AddBox(w.center, w.size, core.Vec3{}); err != nil {
			return err
		}
	}
	return nil
}

func populateCity(s *Scene) error {
	const (
		gridSize  = 10
		spacing   = 30.0
		blockSize = 20.0
	)

	// Blocks sit between the street crossings at multiples of spacing
	origin := -spacing * (gridSize/2 - 0.5)
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			height := 6 + 4*float64((i*7+j*3)%5)
			center := core.NewVec3(origin+float64(i)*spacing, origin+float64(j)*spacing, height/2)
			size := core.NewVec3(blockSize, blockSize, height)
			if err := s.AddBox(center, size, core.Vec3{}); err != nil {
				return err
			}
		}
	}
	return nil
}
