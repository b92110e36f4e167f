package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

var (
	edgeX0 = NewPose7(r3.Vector{X: 0.5, Y: -1, Z: 0.2}, R3ToQuat(r3.Vector{X: 0.1, Y: 0.2, Z: 0.9}))
	edgeX1 = NewPose7(r3.Vector{X: 2, Y: 1, Z: -0.3}, R3ToQuat(r3.Vector{X: -0.3, Y: 0.05, Z: 1.4}))
)

func linearize(x0, x1, z Pose7) (*mat.Dense, *mat.Dense, *mat.VecDense) {
	p0, q0 := Decompose(x0)
	p1, q1 := Decompose(x1)
	dp, dq := Decompose(z)
	return LinearizeEdge(p0, p1, dp, q0, q1, dq)
}

func TestEdgeResidualZeroForExactMeasurement(t *testing.T) {
	_, _, e := linearize(edgeX0, edgeX1, Relative(edgeX0, edgeX1))
	test.That(t, mat.Norm(e, 2), test.ShouldAlmostEqual, 0, 1e-12)
}

func TestEdgeResidualOfOffsetMeasurement(t *testing.T) {
	z := Relative(edgeX0, edgeX1)
	z[0] += 0.25
	_, _, e := linearize(edgeX0, edgeX1, z)
	test.That(t, e.AtVec(0), test.ShouldAlmostEqual, -0.25, 1e-12)
	test.That(t, e.AtVec(1), test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, e.AtVec(3), test.ShouldAlmostEqual, 0, 1e-12)
}

func TestLinearizeEdgePredictsResidualChange(t *testing.T) {
	z := Relative(edgeX0, ApplyCorrection(edgeX1, Delta6{0.1, 0, -0.1, 0.02, 0, 0}))
	A, B, e := linearize(edgeX0, edgeX1, z)

	d0 := Delta6{1e-5, -2e-5, 3e-5, 1e-5, 2e-5, -1e-5}
	d1 := Delta6{-3e-5, 1e-5, 2e-5, -2e-5, 1e-5, 3e-5}

	var predicted mat.VecDense
	predicted.MulVec(A, mat.NewVecDense(6, d0[:]))
	var fromB mat.VecDense
	fromB.MulVec(B, mat.NewVecDense(6, d1[:]))
	predicted.AddVec(&predicted, &fromB)
	predicted.AddVec(&predicted, e)

	_, _, actual := linearize(ApplyCorrection(edgeX0, d0), ApplyCorrection(edgeX1, d1), z)
	for i := 0; i < 6; i++ {
		test.That(t, actual.AtVec(i), test.ShouldAlmostEqual, predicted.AtVec(i), 1e-8)
	}
}

func TestLinearizeEdgeTranslationBlocks(t *testing.T) {
	A, B, _ := linearize(edgeX0, edgeX1, Relative(edgeX0, edgeX1))
	// the predicted translation is R0ᵀ(p1 - p0), so its derivative with respect to p1 is R0ᵀ
	// and with respect to p0 is -R0ᵀ
	_, q0 := Decompose(edgeX0)
	for c := 0; c < 3; c++ {
		var unit r3.Vector
		switch c {
		case 0:
			unit.X = 1
		case 1:
			unit.Y = 1
		default:
			unit.Z = 1
		}
		col := RotateVector(quat.Conj(q0), unit)
		test.That(t, B.At(0, c), test.ShouldAlmostEqual, col.X, 1e-8)
		test.That(t, B.At(1, c), test.ShouldAlmostEqual, col.Y, 1e-8)
		test.That(t, B.At(2, c), test.ShouldAlmostEqual, col.Z, 1e-8)
		test.That(t, A.At(0, c), test.ShouldAlmostEqual, -col.X, 1e-8)
		test.That(t, A.At(1, c), test.ShouldAlmostEqual, -col.Y, 1e-8)
		test.That(t, A.At(2, c), test.ShouldAlmostEqual, -col.Z, 1e-8)
		// rotating the second node does not move the predicted translation
		test.That(t, B.At(0, c+3), test.ShouldAlmostEqual, 0, 1e-8)
	}
}
