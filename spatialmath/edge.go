package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// EdgeResidual returns the error of the relative measurement (dp, dq) between nodes (p0, q0) and
// (p1, q1): the predicted translation minus dp, followed by the rotation vector of dq⁻¹·q0⁻¹·q1.
func EdgeResidual(p0, p1, dp r3.Vector, q0, q1, dq quat.Number) Delta6 {
	inv := quat.Conj(Normalize(q0))
	ep := RotateVector(inv, p1.Sub(p0)).Sub(dp)
	er := QuatToR3(quat.Mul(quat.Conj(Normalize(dq)), quat.Mul(inv, Normalize(q1))))
	return Delta6{ep.X, ep.Y, ep.Z, er.X, er.Y, er.Z}
}

// LinearizeEdge returns the Jacobians of EdgeResidual with respect to a local correction of the
// first node (A) and of the second node (B), along with the residual itself (e).
func LinearizeEdge(p0, p1, dp r3.Vector, q0, q1, dq quat.Number) (*mat.Dense, *mat.Dense, *mat.VecDense) {
	x0 := NewPose7(p0, q0)
	x1 := NewPose7(p1, q1)
	e := EdgeResidual(p0, p1, dp, q0, q1, dq)

	residualAt := func(a, b Pose7) Delta6 {
		pa, qa := Decompose(a)
		pb, qb := Decompose(b)
		return EdgeResidual(pa, pb, dp, qa, qb, dq)
	}
	settings := &fd.JacobianSettings{Formula: fd.Central, OriginValue: e[:]}
	zero := make([]float64, 6)

	A := mat.NewDense(6, 6, nil)
	fd.Jacobian(A, func(y, d []float64) {
		r := residualAt(ApplyCorrection(x0, toDelta(d)), x1)
		copy(y, r[:])
	}, zero, settings)

	B := mat.NewDense(6, 6, nil)
	fd.Jacobian(B, func(y, d []float64) {
		r := residualAt(x0, ApplyCorrection(x1, toDelta(d)))
		copy(y, r[:])
	}, zero, settings)

	return A, B, mat.NewVecDense(6, e[:])
}

func toDelta(d []float64) Delta6 {
	var out Delta6
	copy(out[:], d)
	return out
}
