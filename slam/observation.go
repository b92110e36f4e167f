package slam

import (
	"gonum.org/v1/gonum/mat"

	"go.viam.com/graphslam/spatialmath"
)

// Observation is a noisy relative measurement Z of node To as seen from node From. Info is the
// 6x6 inverse covariance of the measurement and must be symmetric positive semi-definite.
type Observation struct {
	From int
	To   int
	Z    spatialmath.Pose7
	Info mat.Matrix
}

// Seed is an externally supplied estimate for a node.
type Seed struct {
	Index int
	Pose  spatialmath.Pose7
}

// NewIsotropicInformation returns an information matrix weighting translation by wt and rotation by
// wr. A zero wr makes the measurement position-only, as for a landmark.
func NewIsotropicInformation(wt, wr float64) *mat.SymDense {
	info := mat.NewSymDense(6, nil)
	for i := 0; i < 3; i++ {
		info.SetSym(i, i, wt)
		info.SetSym(i+3, i+3, wr)
	}
	return info
}

func (o Observation) validate(n int) error {
	if o.From < 0 || o.From >= n {
		return NewIndexOutOfRangeError(o.From, n)
	}
	if o.To < 0 || o.To >= n {
		return NewIndexOutOfRangeError(o.To, n)
	}
	if o.From == o.To {
		return NewSelfEdgeError(o.From)
	}
	if o.Info == nil {
		return NewInformationShapeError(0, 0)
	}
	if r, c := o.Info.Dims(); r != 6 || c != 6 {
		return NewInformationShapeError(r, c)
	}
	return nil
}

// checkObservations validates every observation against a graph of n nodes and verifies that each
// edge source has an estimate by the time the edge is reached, given which nodes are known up front.
// Targets become known as they are seeded.
func checkObservations(obs []Observation, n int, known []bool) error {
	for _, o := range obs {
		if err := o.validate(n); err != nil {
			return err
		}
		if !known[o.From] {
			return NewUnknownNodeError(o.From)
		}
		known[o.To] = true
	}
	return nil
}
