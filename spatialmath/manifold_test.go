package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestExpLogRoundTrip(t *testing.T) {
	for _, v := range []r3.Vector{
		{},
		{X: 1e-12},
		{X: 0.3, Y: -0.2, Z: 0.1},
		{Z: math.Pi - 1e-3},
		{X: 1, Y: 1, Z: 1},
	} {
		back := QuatToR3(R3ToQuat(v))
		test.That(t, back.X, test.ShouldAlmostEqual, v.X, 1e-12)
		test.That(t, back.Y, test.ShouldAlmostEqual, v.Y, 1e-12)
		test.That(t, back.Z, test.ShouldAlmostEqual, v.Z, 1e-12)
	}

	// q and -q encode the same rotation
	v := QuatToR3(Flip(q45x))
	test.That(t, v.X, test.ShouldAlmostEqual, math.Pi/4)
	test.That(t, v.Y, test.ShouldAlmostEqual, 0)
}

func TestRotateVector(t *testing.T) {
	q := R3ToQuat(r3.Vector{Z: math.Pi / 2})
	v := RotateVector(q, r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)
	test.That(t, v.Z, test.ShouldAlmostEqual, 0)
}

func TestComposeRelative(t *testing.T) {
	from := NewPose7(r3.Vector{X: 1, Y: 2}, R3ToQuat(r3.Vector{Z: math.Pi / 2}))
	delta := NewPose7(r3.Vector{X: 1}, R3ToQuat(r3.Vector{Z: math.Pi / 2}))

	local := ComposeRelative(from, delta, false)
	p, q := Decompose(local)
	test.That(t, p.X, test.ShouldAlmostEqual, 1)
	test.That(t, p.Y, test.ShouldAlmostEqual, 3)
	test.That(t, math.Abs(QuatToR3(q).Z), test.ShouldAlmostEqual, math.Pi)

	world := ComposeRelative(from, delta, true)
	p, _ = Decompose(world)
	test.That(t, p.X, test.ShouldAlmostEqual, 2)
	test.That(t, p.Y, test.ShouldAlmostEqual, 2)

	test.That(t, PoseAlmostEqual(ComposeRelative(from, Identity(), false), from, 1e-12), test.ShouldBeTrue)
}

func TestRelativeInvertsCompose(t *testing.T) {
	x0 := NewPose7(r3.Vector{X: -1, Y: 0.5, Z: 2}, R3ToQuat(r3.Vector{X: 0.2, Y: -0.4, Z: 1.1}))
	x1 := NewPose7(r3.Vector{X: 3, Y: 1, Z: -2}, R3ToQuat(r3.Vector{X: -0.7, Y: 0.1, Z: 0.3}))
	z := Relative(x0, x1)
	test.That(t, PoseAlmostEqual(ComposeRelative(x0, z, false), x1, 1e-12), test.ShouldBeTrue)
}

func TestApplyCorrection(t *testing.T) {
	x := NewPose7(r3.Vector{X: 1}, q45x)
	test.That(t, PoseAlmostEqual(ApplyCorrection(x, Delta6{}), x, 1e-12), test.ShouldBeTrue)

	y := ApplyCorrection(x, Delta6{0.5, -1, 2, 0, 0, 0.3})
	p, q := Decompose(y)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 1.5, Y: -1, Z: 2})
	test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1, 1e-15)

	// the rotation is applied in the local frame
	local := QuatToR3(quat.Mul(quat.Conj(q45x), q))
	test.That(t, local.X, test.ShouldAlmostEqual, 0)
	test.That(t, local.Y, test.ShouldAlmostEqual, 0)
	test.That(t, local.Z, test.ShouldAlmostEqual, 0.3)
}
