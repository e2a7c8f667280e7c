package geometry

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/df07/go-sky-ratio/pkg/core"
)

// Rotation is an orthonormal rotation built from Euler angles in radians,
// composed as Rx * Ry * Rz.
type Rotation struct {
	forward sdf.M44
	inverse sdf.M44
}

// NewRotation creates the rotation for the given Euler angles (radians)
func NewRotation(euler core.Vec3) Rotation {
	return Rotation{
		forward: sdf.RotateX(euler.X).Mul(sdf.RotateY(euler.Y)).Mul(sdf.RotateZ(euler.Z)),
		inverse: sdf.RotateZ(-euler.Z).Mul(sdf.RotateY(-euler.Y)).Mul(sdf.RotateX(-euler.X)),
	}
}

// Apply rotates v from local to world space
func (r Rotation) Apply(v core.Vec3) core.Vec3 {
	return fromV3(r.forward.MulPosition(toV3(v)))
}

// Unapply rotates v from world to local space
func (r Rotation) Unapply(v core.Vec3) core.Vec3 {
	return fromV3(r.inverse.MulPosition(toV3(v)))
}

func toV3(v core.Vec3) v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromV3(v v3.Vec) core.Vec3 {
	return core.NewVec3(v.X, v.Y, v.Z)
}
