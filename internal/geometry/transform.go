// Package geometry moves points and annotation boxes between the global, ego
// and sensor frames and projects them into camera images.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation converts a dataset quaternion (w, x, y, z) to a unit rotation.
func Rotation(q [4]float64) r3.Rotation {
	n := quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
	if abs := quat.Abs(n); abs != 0 && abs != 1 {
		n = quat.Scale(1/abs, n)
	}
	if n == (quat.Number{}) {
		n.Real = 1
	}
	return r3.Rotation(n)
}

// Vec converts a dataset translation to a vector.
func Vec(t [3]float64) r3.Vec {
	return r3.Vec{X: t[0], Y: t[1], Z: t[2]}
}

// Transform is a rigid transform: rotate, then translate.
type Transform struct {
	Rotation    r3.Rotation
	Translation r3.Vec
}

// NewTransform builds the transform a calibrated_sensor or ego_pose record
// describes, taking child-frame points into the parent frame.
func NewTransform(translation [3]float64, rotation [4]float64) Transform {
	return Transform{Rotation: Rotation(rotation), Translation: Vec(translation)}
}

// Identity returns the transform that leaves points unchanged.
func Identity() Transform {
	return Transform{Rotation: r3.Rotation{Real: 1}}
}

// Apply maps p from the child frame into the parent frame.
func (t Transform) Apply(p r3.Vec) r3.Vec {
	return r3.Add(t.Rotation.Rotate(p), t.Translation)
}

// Inverse returns the transform taking parent-frame points to the child frame.
func (t Transform) Inverse() Transform {
	inv := r3.Rotation(quat.Conj(quat.Number(t.Rotation)))
	return Transform{Rotation: inv, Translation: r3.Scale(-1, inv.Rotate(t.Translation))}
}

// Then returns the transform that applies t first and next second.
func (t Transform) Then(next Transform) Transform {
	return Transform{
		Rotation:    r3.Rotation(quat.Mul(quat.Number(next.Rotation), quat.Number(t.Rotation))),
		Translation: next.Apply(t.Translation),
	}
}

// Yaw returns the heading of r around the z axis in radians.
func Yaw(r r3.Rotation) float64 {
	v := r.Rotate(r3.Vec{X: 1})
	return math.Atan2(v.Y, v.X)
}
