package parallel

import (
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/scene"
	"github.com/df07/go-sky-ratio/pkg/sky"
)

func citySample(t *testing.T) (*scene.Scene, scene.Sample) {
	t.Helper()
	sm, ok := scene.LookupSample("city")
	if !ok {
		t.Fatal("Missing city sample")
	}
	s := scene.NewScene(nil, nil)
	if err := sm.Populate(s); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if err := s.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s, sm
}

func TestCheckAll_MatchesSerialCheck(t *testing.T) {
	s, sm := citySample(t)

	checker := sky.NewChecker(nil)
	checker.SetScene(s)
	checker.SetResolution(10)
	if err := checker.SetCheckpoints(sm.Checkpoints); err != nil {
		t.Fatalf("SetCheckpoints: %v", err)
	}

	serial, err := checker.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	concurrent, err := CheckAll(checker, 4)
	if err != nil {
		t.Fatalf("CheckAll: %v", err)
	}

	if len(concurrent) != len(serial) {
		t.Fatalf("Expected %d ratios, got %d", len(serial), len(concurrent))
	}
	for i := range serial {
		if serial[i] != concurrent[i] {
			t.Errorf("checkpoint %d: serial %v, concurrent %v", i, serial[i], concurrent[i])
		}
	}
}

func TestCheckAll_NoScene(t *testing.T) {
	checker := sky.NewChecker(nil)
	_ = checker.SetCheckpoints([]core.Vec3{{}})

	ratios, err := CheckAll(checker, 2)
	if err != nil || ratios == nil || len(ratios) != 0 {
		t.Errorf("Expected empty result, got %v, %v", ratios, err)
	}
}

func TestCheckAll_UnbuiltScene(t *testing.T) {
	checker := sky.NewChecker(nil)
	checker.SetScene(scene.NewScene(nil, nil))
	_ = checker.SetCheckpoints([]core.Vec3{{}, {X: 1}})

	if _, err := CheckAll(checker, 2); !errors.Is(err, core.ErrNotBuilt) {
		t.Errorf("Expected ErrNotBuilt, got %v", err)
	}
}

func TestRaycast_MatchesSceneRaycast(t *testing.T) {
	s, _ := citySample(t)

	// More rays than one chunk so the batch is split
	rays := sky.GenerateRays(core.NewVec3(0, 0, 1.5), 2)
	origins := make([]core.Vec3, len(rays))
	directions := make([]core.Vec3, len(rays))
	for i, r := range rays {
		origins[i] = r.Origin
		directions[i] = r.Direction
	}
	if len(rays) <= DefaultChunkSize {
		t.Fatalf("Expected more than %d rays, got %d", DefaultChunkSize, len(rays))
	}

	serial, err := s.Raycast(origins, directions)
	if err != nil {
		t.Fatalf("Raycast: %v", err)
	}
	concurrent, err := Raycast(s, origins, directions, 4)
	if err != nil {
		t.Fatalf("parallel Raycast: %v", err)
	}

	if len(concurrent) != len(serial) {
		t.Fatalf("Expected %d results, got %d", len(serial), len(concurrent))
	}
	for i := range serial {
		if serial[i].Hit != concurrent[i].Hit || math.Abs(serial[i].Distance-concurrent[i].Distance) > 0 {
			t.Fatalf("ray %d: serial %+v, concurrent %+v", i, serial[i], concurrent[i])
		}
	}
}

func TestRaycast_Errors(t *testing.T) {
	s := scene.NewScene(nil, nil)

	if _, err := Raycast(s, []core.Vec3{{}}, nil, 2); !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
	if _, err := Raycast(s, nil, nil, 2); !errors.Is(err, core.ErrNotBuilt) {
		t.Errorf("Expected ErrNotBuilt, got %v", err)
	}

	_ = s.Build()
	origins := make([]core.Vec3, DefaultChunkSize+10)
	directions := make([]core.Vec3, len(origins))
	for i := range directions {
		directions[i] = core.NewVec3(0, 0, 1)
	}
	directions[DefaultChunkSize+3] = core.Vec3{}
	if _, err := Raycast(s, origins, directions, 2); !errors.Is(err, core.ErrZeroDirection) {
		t.Errorf("Expected ErrZeroDirection, got %v", err)
	}

	results, err := Raycast(s, nil, nil, 2)
	if err != nil || len(results) != 0 {
		t.Errorf("Expected empty batch to succeed, got %v, %v", results, err)
	}
}
