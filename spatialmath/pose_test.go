package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

// a 45 degree rotation around the x axis
var q45x = quat.Number{Real: math.Cos(math.Pi / 8), Imag: math.Sin(math.Pi / 8)}

func TestPose7Layout(t *testing.T) {
	x := NewPose7(r3.Vector{X: 1, Y: 2, Z: 3}, q45x)
	test.That(t, x[0], test.ShouldEqual, 1.0)
	test.That(t, x[2], test.ShouldEqual, 3.0)
	test.That(t, x[3], test.ShouldAlmostEqual, q45x.Imag)
	test.That(t, x[6], test.ShouldAlmostEqual, q45x.Real)

	p, q := Decompose(x)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, q.Real, test.ShouldAlmostEqual, q45x.Real)
	test.That(t, q.Imag, test.ShouldAlmostEqual, q45x.Imag)

	test.That(t, NewLandmark(r3.Vector{X: 4}).Orientation(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, Identity().Point(), test.ShouldResemble, r3.Vector{})
}

func TestNewPose7Normalizes(t *testing.T) {
	x := NewPose7(r3.Vector{}, quat.Number{Real: 2})
	test.That(t, x.Orientation(), test.ShouldResemble, quat.Number{Real: 1})
	x = NewPose7(r3.Vector{}, quat.Number{})
	test.That(t, x.Orientation(), test.ShouldResemble, quat.Number{Real: 1})
}

func TestPoseAlmostEqual(t *testing.T) {
	a := NewPose7(r3.Vector{X: 1}, q45x)
	b := NewPose7(r3.Vector{X: 1}, Flip(q45x))
	test.That(t, PoseAlmostEqual(a, b, 1e-9), test.ShouldBeTrue)

	c := NewPose7(r3.Vector{X: 1.1}, q45x)
	test.That(t, PoseAlmostEqual(a, c, 1e-3), test.ShouldBeFalse)
	test.That(t, PoseAlmostEqual(a, c, 0.2), test.ShouldBeTrue)

	d := NewPose7(r3.Vector{X: 1}, quat.Mul(q45x, R3ToQuat(r3.Vector{Z: 0.01})))
	test.That(t, PoseAlmostEqual(a, d, 1e-3), test.ShouldBeFalse)
	test.That(t, PoseAlmostEqual(a, d, 0.011), test.ShouldBeTrue)
}
