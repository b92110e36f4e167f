package blockmat

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Block flattens a block grid into a dense matrix, placing element (i, j, k, l) at
// (i*br+k, j*bc+l).
func Block(x *Blocks) *mat.Dense {
	if x.rows == 0 || x.cols == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(x.rows*x.br, x.cols*x.bc, nil)
	raw := out.RawMatrix()
	for i := 0; i < x.rows; i++ {
		for j := 0; j < x.cols; j++ {
			blk := x.block(i, j)
			for k := 0; k < x.br; k++ {
				row := raw.Data[(i*x.br+k)*raw.Stride+j*x.bc:]
				copy(row[:x.bc], blk[k*x.bc:(k+1)*x.bc])
			}
		}
	}
	return out
}

// Unblock is the inverse of Block: it splits d into a grid of br x bc blocks. The dimensions of d
// must be exact multiples of the block shape.
func Unblock(d mat.Matrix, br, bc int) (*Blocks, error) {
	if br <= 0 || bc <= 0 {
		return nil, errors.Wrapf(ErrShape, "block shape %dx%d", br, bc)
	}
	r, c := d.Dims()
	if r%br != 0 || c%bc != 0 {
		return nil, errors.Wrapf(ErrShape, "cannot split %dx%d into %dx%d blocks", r, c, br, bc)
	}
	out := New(r/br, c/bc, br, bc)
	for i := 0; i < out.rows; i++ {
		for j := 0; j < out.cols; j++ {
			blk := out.block(i, j)
			for k := 0; k < br; k++ {
				for l := 0; l < bc; l++ {
					blk[k*bc+l] = d.At(i*br+k, j*bc+l)
				}
			}
		}
	}
	return out, nil
}
