package blockmat

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// rcondFor returns the relative singular value cutoff used for an r x c system. Singular values at
// or below rcond times the largest one are treated as zero.
func rcondFor(r, c int) float64 {
	const eps = 0x1p-52
	return eps * float64(max(r, c))
}

func factorize(a mat.Matrix) (*mat.SVD, int, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, 0, errors.New("singular value decomposition failed")
	}
	r, c := a.Dims()
	return &svd, svd.Rank(rcondFor(r, c)), nil
}

// LeastSquares returns the minimum-norm x minimizing ||a*x - b||. Rank deficient systems are
// solved in the subspace spanned by the significant singular vectors, so unconstrained directions
// receive a zero component; a zero matrix yields a zero solution.
func LeastSquares(a, b mat.Matrix) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br {
		return nil, errors.Wrapf(ErrShape, "least squares system %dx%d with right hand side %dx%d", ar, ac, br, bc)
	}
	svd, rank, err := factorize(a)
	if err != nil {
		return nil, err
	}
	if rank == 0 {
		return mat.NewDense(ac, bc, nil), nil
	}
	var x mat.Dense
	svd.SolveTo(&x, b, rank)
	return &x, nil
}

// PseudoInverse returns the Moore-Penrose pseudo-inverse of a.
func PseudoInverse(a mat.Matrix) (*mat.Dense, error) {
	r, _ := a.Dims()
	eye := mat.NewDiagDense(r, nil)
	for i := 0; i < r; i++ {
		eye.SetDiag(i, 1)
	}
	return LeastSquares(a, eye)
}

// Symmetrize replaces m with (m + mᵀ)/2.
func Symmetrize(m *mat.Dense) {
	r, c := m.Dims()
	if r != c {
		panic(mat.ErrSquare)
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			v := (m.At(i, j) + m.At(j, i)) / 2
			m.Set(i, j, v)
			m.Set(j, i, v)
		}
	}
}
