// Package scene aggregates primitives and resolves nearest hits for batches
// of rays through a compiled acceleration structure.
package scene

import (
	"github.com/pkg/errors"

	"github.com/df07/go-sky-ratio/pkg/accel"
	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/geometry"
)

// HitResult is the outcome of one ray. Position and Distance are zero when
// Hit is false. Distance is measured in units of the ray direction's length.
type HitResult struct {
	Hit      bool
	Position core.Vec3
	Distance float64
}

// Scene is an insertion-ordered set of primitives plus the structure
// compiled from them. Queries are valid only after Build and until the next
// mutation. Concurrent queries are safe; mutation concurrent with anything
// else is not.
type Scene struct {
	accelerator accel.Accelerator
	logger      core.Logger

	primitives []geometry.Primitive
	structure  accel.Structure
	built      bool
}

// NewScene creates an empty scene. A nil accelerator selects the BVH and a
// nil logger discards output.
func NewScene(accelerator accel.Accelerator, logger core.Logger) *Scene {
	if accelerator == nil {
		accelerator = accel.BVHAccelerator{}
	}
	return &Scene{accelerator: accelerator, logger: logger}
}

// Accelerator returns the accelerator the scene builds with
func (s *Scene) Accelerator() accel.Accelerator {
	return s.accelerator
}

// AddBox appends a box given its center, full size and Euler rotation in
// radians. A rotated box fails with core.ErrUnsupportedFeature when the
// accelerator only handles axis-aligned boxes.
func (s *Scene) AddBox(position, size, rotation core.Vec3) error {
	if !rotation.IsZero() && !s.accelerator.SupportsRotation() {
		return errors.Wrapf(core.ErrUnsupportedFeature, "box rotation %v with accelerator %s", rotation, s.accelerator.Name())
	}
	box, err := geometry.NewBox(position, size, rotation)
	if err != nil {
		return err
	}
	s.add(box)
	return nil
}

// AddSphere appends a sphere
func (s *Scene) AddSphere(center core.Vec3, radius float64) error {
	sphere, err := geometry.NewSphere(center, radius)
	if err != nil {
		return err
	}
	s.add(sphere)
	return nil
}

// AddMesh appends a triangle soup; len(vertices) must be a multiple of 3
func (s *Scene) AddMesh(vertices []core.Vec3) error {
	mesh, err := geometry.NewMesh(vertices)
	if err != nil {
		return err
	}
	s.add(mesh)
	return nil
}

func (s *Scene) add(p geometry.Primitive) {
	s.primitives = append(s.primitives, p)
	s.structure = nil
	s.built = false
}

// Build compiles the acceleration structure from the current primitives.
// Calling it again without mutations rebuilds the same structure.
func (s *Scene) Build() error {
	var shapes []geometry.Shape
	for _, p := range s.primitives {
		shapes = append(shapes, p.Shapes()...)
	}

	structure, err := s.accelerator.Compile(shapes)
	if err != nil {
		return errors.Wrapf(err, "build scene with %s", s.accelerator.Name())
	}

	s.structure = structure
	s.built = true
	if s.logger != nil {
		s.logger.Printf("Scene built: %d primitives, %d shapes, accelerator %s\n",
			len(s.primitives), structure.Len(), s.accelerator.Name())
		if d, ok := structure.(accel.Describer); ok {
			s.logger.Printf("%s\n", d.Describe())
		}
	}
	return nil
}

// Clear removes every primitive and invalidates the structure
func (s *Scene) Clear() {
	s.primitives = nil
	s.structure = nil
	s.built = false
}

// Built reports whether queries are currently valid
func (s *Scene) Built() bool {
	return s.built
}

// Len returns the number of primitives
func (s *Scene) Len() int {
	return len(s.primitives)
}

// Primitives returns a copy of the primitives in insertion order
func (s *Scene) Primitives() []geometry.Primitive {
	return append([]geometry.Primitive(nil), s.primitives...)
}

// Raycast resolves the nearest hit for each (origins[i], directions[i])
// pair. Results are index-aligned with the inputs. Every direction is
// validated before any ray is cast, so an error never comes with partial
// results.
func (s *Scene) Raycast(origins, directions []core.Vec3) ([]HitResult, error) {
	if len(origins) != len(directions) {
		return nil, errors.Wrapf(core.ErrLengthMismatch, "%d origins, %d directions", len(origins), len(directions))
	}
	if !s.built {
		return nil, core.ErrNotBuilt
	}
	for i := range origins {
		if err := validateRay(origins[i], directions[i]); err != nil {
			return nil, errors.Wrapf(err, "ray %d", i)
		}
	}

	results := make([]HitResult, len(origins))
	for i := range origins {
		results[i] = s.cast(core.NewRay(origins[i], directions[i]))
	}
	return results, nil
}

// Nearest resolves a single ray
func (s *Scene) Nearest(ray core.Ray) (HitResult, error) {
	if !s.built {
		return HitResult{}, core.ErrNotBuilt
	}
	if err := validateRay(ray.Origin, ray.Direction); err != nil {
		return HitResult{}, err
	}
	return s.cast(ray), nil
}

func (s *Scene) cast(ray core.Ray) HitResult {
	t, ok := s.structure.Nearest(ray)
	if !ok {
		return HitResult{}
	}
	return HitResult{Hit: true, Position: ray.At(t), Distance: t}
}

func validateRay(origin, direction core.Vec3) error {
	if !origin.IsFinite() || !direction.IsFinite() {
		return errors.Wrap(core.ErrInvalidGeometry, "non-finite ray")
	}
	if direction.IsZero() {
		return core.ErrZeroDirection
	}
	return nil
}
