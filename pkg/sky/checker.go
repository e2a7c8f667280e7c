package sky

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/scene"
)

// Raycaster is the part of a built scene the checker queries
type Raycaster interface {
	Raycast(origins, directions []core.Vec3) ([]scene.HitResult, error)
}

// Checker evaluates the sky ratio at a list of checkpoints against a scene
// it does not own.
type Checker struct {
	scene       Raycaster
	checkpoints []core.Vec3
	resolution  float64
	method      Method
	logger      core.Logger
}

// NewChecker creates a checker with the default resolution and the
// solid-angle method. A nil logger discards output.
func NewChecker(logger core.Logger) *Checker {
	return &Checker{
		resolution: DefaultResolution,
		method:     MethodSolidAngle,
		logger:     logger,
	}
}

// SetScene sets the scene to query; nil unsets it
func (c *Checker) SetScene(s Raycaster) {
	c.scene = s
}

// Scene returns the scene being queried, or nil
func (c *Checker) Scene() Raycaster {
	return c.scene
}

// SetCheckpoints replaces the checkpoint list. Non-finite positions are
// rejected and leave the list unchanged.
func (c *Checker) SetCheckpoints(checkpoints []core.Vec3) error {
	for i, cp := range checkpoints {
		if !cp.IsFinite() {
			return errors.Wrapf(core.ErrInvalidGeometry, "checkpoint %d is not finite", i)
		}
	}
	c.checkpoints = append([]core.Vec3(nil), checkpoints...)
	return nil
}

// AddCheckpoint appends one checkpoint
func (c *Checker) AddCheckpoint(cp core.Vec3) error {
	if !cp.IsFinite() {
		return errors.Wrap(core.ErrInvalidGeometry, "checkpoint is not finite")
	}
	c.checkpoints = append(c.checkpoints, cp)
	return nil
}

// Checkpoints returns a copy of the checkpoint list
func (c *Checker) Checkpoints() []core.Vec3 {
	return append([]core.Vec3(nil), c.checkpoints...)
}

// SetResolution stores the angular step in degrees. Values outside
// (0, 180] are replaced by DefaultResolution and the substitution is
// logged. It returns the stored value.
func (c *Checker) SetResolution(res float64) float64 {
	clamped := ClampResolution(res)
	if clamped != res && c.logger != nil {
		c.logger.Printf("Ray resolution %v out of range (0, %v], using %v\n", res, MaxResolution, clamped)
	}
	c.resolution = clamped
	return clamped
}

// Resolution returns the stored angular step in degrees
func (c *Checker) Resolution() float64 {
	return c.resolution
}

// SetMethod selects the ratio method
func (c *Checker) SetMethod(m Method) {
	c.method = m
}

// Method returns the ratio method
func (c *Checker) Method() Method {
	return c.method
}

// Grid returns the discretization used by Check
func (c *Checker) Grid() Grid {
	return Discretize(c.resolution)
}

// Check returns one ratio per checkpoint, in checkpoint order. Without a
// scene the result is empty. A scene error fails the whole batch.
func (c *Checker) Check() ([]float64, error) {
	if c.scene == nil {
		return []float64{}, nil
	}

	grid := c.Grid()
	directions := grid.Directions()
	ratios := make([]float64, len(c.checkpoints))
	for i, cp := range c.checkpoints {
		ratio, err := c.evaluate(grid, directions, cp)
		if err != nil {
			return nil, errors.Wrapf(err, "checkpoint %d", i)
		}
		ratios[i] = ratio
	}
	return ratios, nil
}

// CheckPoint returns the ratio at a single position, independent of the
// checkpoint list.
func (c *Checker) CheckPoint(cp core.Vec3) (float64, error) {
	if c.scene == nil {
		return 0, errors.Wrap(core.ErrNotBuilt, "no scene set")
	}
	if !cp.IsFinite() {
		return 0, errors.Wrap(core.ErrInvalidGeometry, "checkpoint is not finite")
	}
	grid := c.Grid()
	return c.evaluate(grid, grid.Directions(), cp)
}

func (c *Checker) evaluate(grid Grid, directions []core.Vec3, cp core.Vec3) (float64, error) {
	origins := lo.Times(len(directions), func(int) core.Vec3 { return cp })
	results, err := c.scene.Raycast(origins, directions)
	if err != nil {
		return 0, err
	}

	hits := lo.Map(results, func(r scene.HitResult, _ int) bool { return r.Hit })
	if c.method == MethodRayCount {
		return CountRatio(hits), nil
	}
	return Integrate(grid, hits)
}
