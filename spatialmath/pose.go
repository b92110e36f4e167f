package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose7 is the state of a graph node: a position followed by a unit quaternion, laid out as
// x, y, z, qx, qy, qz, qw. Landmarks use the same layout with an identity orientation.
type Pose7 [7]float64

// Delta6 is a local correction to a Pose7: a translation followed by a rotation vector in the
// node's own frame.
type Delta6 [6]float64

// NewPose7 builds a Pose7 from a position and an orientation. The orientation is normalized.
func NewPose7(p r3.Vector, q quat.Number) Pose7 {
	q = Normalize(q)
	return Pose7{p.X, p.Y, p.Z, q.Imag, q.Jmag, q.Kmag, q.Real}
}

// NewLandmark returns a Pose7 at p with no rotation.
func NewLandmark(p r3.Vector) Pose7 {
	return Pose7{p.X, p.Y, p.Z, 0, 0, 0, 1}
}

// Identity returns the zero motion.
func Identity() Pose7 {
	return Pose7{0, 0, 0, 0, 0, 0, 1}
}

// Point returns the position component.
func (x Pose7) Point() r3.Vector {
	return r3.Vector{X: x[0], Y: x[1], Z: x[2]}
}

// Orientation returns the quaternion component.
func (x Pose7) Orientation() quat.Number {
	return quat.Number{Real: x[6], Imag: x[3], Jmag: x[4], Kmag: x[5]}
}

// Decompose splits a Pose7 into its position and orientation.
func Decompose(x Pose7) (r3.Vector, quat.Number) {
	return x.Point(), x.Orientation()
}

// PoseAlmostEqual reports whether two poses have positions within tol of each other and
// orientations that differ by a rotation of less than tol radians. q and -q are the same rotation.
func PoseAlmostEqual(a, b Pose7, tol float64) bool {
	if a.Point().Sub(b.Point()).Norm() > tol {
		return false
	}
	between := quat.Mul(quat.Conj(a.Orientation()), b.Orientation())
	return QuatToR3(between).Norm() <= tol
}

// Norm returns the norm of the imaginary part of the quaternion.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// Normalize scales q to unit length. A zero quaternion becomes the identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}
