package parallel

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/scene"
	"github.com/df07/go-sky-ratio/pkg/sky"
)

// DefaultChunkSize is the number of rays one task casts in Raycast
const DefaultChunkSize = 4096

// CheckAll evaluates every checkpoint of checker concurrently. It returns the
// same ratios as checker.Check, including the empty result when no scene is
// set. The scene must not be mutated while CheckAll runs.
func CheckAll(checker *sky.Checker, numWorkers int) ([]float64, error) {
	if checker.Scene() == nil {
		return []float64{}, nil
	}

	checkpoints := checker.Checkpoints()
	return Map(len(checkpoints), numWorkers, func(i int) (float64, error) {
		ratio, err := checker.CheckPoint(checkpoints[i])
		if err != nil {
			return 0, errors.Wrapf(err, "checkpoint %d", i)
		}
		return ratio, nil
	})
}

// Raycast splits the ray batch into chunks of DefaultChunkSize and casts them
// concurrently against s. Results and errors match s.Raycast on the whole
// batch.
func Raycast(s *scene.Scene, origins, directions []core.Vec3, numWorkers int) ([]scene.HitResult, error) {
	if len(origins) != len(directions) {
		return nil, errors.Wrapf(core.ErrLengthMismatch, "%d origins, %d directions", len(origins), len(directions))
	}
	if !s.Built() {
		return nil, core.ErrNotBuilt
	}

	chunks := lo.Chunk(lo.Range(len(origins)), DefaultChunkSize)
	batches, err := Map(len(chunks), numWorkers, func(i int) ([]scene.HitResult, error) {
		first := chunks[i][0]
		last := first + len(chunks[i])
		results, err := s.Raycast(origins[first:last], directions[first:last])
		if err != nil {
			return nil, errors.Wrapf(err, "rays %d..%d", first, last-1)
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}

	return lo.Flatten(batches), nil
}
