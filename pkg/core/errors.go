package core

import "github.com/pkg/errors"

// Caller errors shared by the scene, the acceleration structures and the checker.
var (
	// ErrNotBuilt is returned when a scene is queried before Build or after
	// a mutation that was not followed by another Build.
	ErrNotBuilt = errors.New("scene is not built")

	// ErrLengthMismatch is returned when paired inputs differ in length.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrZeroDirection is returned for rays whose direction has zero length.
	ErrZeroDirection = errors.New("zero-length ray direction")

	// ErrUnsupportedFeature is returned when a geometry feature is requested
	// from an engine that cannot represent it.
	ErrUnsupportedFeature = errors.New("unsupported feature")

	// ErrInvalidGeometry is returned for primitives that violate their invariants.
	ErrInvalidGeometry = errors.New("invalid geometry")
)
