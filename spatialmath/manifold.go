package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Below this rotation angle the exp and log maps switch to their series forms.
const smallAngle = 1e-9

// R3ToQuat converts a rotation vector (axis scaled by angle, radians) to a unit quaternion.
func R3ToQuat(v r3.Vector) quat.Number {
	theta := v.Norm()
	if theta < smallAngle {
		return Normalize(quat.Number{Real: 1, Imag: v.X / 2, Jmag: v.Y / 2, Kmag: v.Z / 2})
	}
	s := math.Sin(theta/2) / theta
	return quat.Number{Real: math.Cos(theta / 2), Imag: v.X * s, Jmag: v.Y * s, Kmag: v.Z * s}
}

// QuatToR3 converts a unit quaternion to the shortest rotation vector producing the same rotation.
// The angle is computed the same way the C++ Eigen library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR3(q quat.Number) r3.Vector {
	if q.Real < 0 {
		q = Flip(q)
	}
	denom := Norm(q)
	var scale float64
	if denom < smallAngle {
		scale = 2 / q.Real
	} else {
		scale = 2 * math.Atan2(denom, q.Real) / denom
	}
	return r3.Vector{X: q.Imag * scale, Y: q.Jmag * scale, Z: q.Kmag * scale}
}

// RotateVector rotates v by the unit quaternion q.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	r := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// ComposeRelative produces an estimate for a node reached from `from` by the relative motion delta.
// With asTransform false delta is expressed in the frame of `from` (the convention of edge
// measurements); with asTransform true delta is a world frame translation and a left-applied rotation.
func ComposeRelative(from, delta Pose7, asTransform bool) Pose7 {
	p0, q0 := Decompose(from)
	dp, dq := Decompose(delta)
	if asTransform {
		return NewPose7(p0.Add(dp), quat.Mul(dq, q0))
	}
	return NewPose7(p0.Add(RotateVector(q0, dp)), quat.Mul(q0, dq))
}

// Relative returns the motion that takes x0 to x1 in the frame of x0, so that
// ComposeRelative(x0, Relative(x0, x1), false) == x1.
func Relative(x0, x1 Pose7) Pose7 {
	p0, q0 := Decompose(x0)
	p1, q1 := Decompose(x1)
	inv := quat.Conj(q0)
	return NewPose7(RotateVector(inv, p1.Sub(p0)), quat.Mul(inv, q1))
}

// ApplyCorrection applies a local correction to x. The translation part is added to the position,
// the rotation part is composed on the right of the orientation and the result renormalized.
func ApplyCorrection(x Pose7, d Delta6) Pose7 {
	p, q := Decompose(x)
	p = p.Add(r3.Vector{X: d[0], Y: d[1], Z: d[2]})
	q = quat.Mul(q, R3ToQuat(r3.Vector{X: d[3], Y: d[4], Z: d[5]}))
	return NewPose7(p, q)
}
