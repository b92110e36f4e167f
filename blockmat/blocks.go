// Package blockmat implements grids of equally sized dense blocks, the storage used for block
// information matrices and vectors, and the codec that flattens them for a dense solver.
package blockmat

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrShape is returned when a dense matrix cannot be split into whole blocks of the requested shape.
var ErrShape = errors.New("dimensions are not a multiple of the block shape")

// Blocks is a rows x cols grid of br x bc dense blocks. Element (i, j, k, l) is entry (k, l) of
// block (i, j); storage is row-major over those four axes.
type Blocks struct {
	rows, cols int
	br, bc     int
	data       []float64
}

// New returns a zeroed rows x cols grid of br x bc blocks.
func New(rows, cols, br, bc int) *Blocks {
	if rows < 0 || cols < 0 || br <= 0 || bc <= 0 {
		panic(fmt.Sprintf("blockmat: invalid grid %dx%d of %dx%d blocks", rows, cols, br, bc))
	}
	return &Blocks{
		rows: rows,
		cols: cols,
		br:   br,
		bc:   bc,
		data: make([]float64, rows*cols*br*bc),
	}
}

// Dims returns the number of block rows and block columns.
func (b *Blocks) Dims() (rows, cols int) {
	return b.rows, b.cols
}

// BlockShape returns the dimensions of a single block.
func (b *Blocks) BlockShape() (br, bc int) {
	return b.br, b.bc
}

func (b *Blocks) offset(i, j int) int {
	if i < 0 || i >= b.rows || j < 0 || j >= b.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	return (i*b.cols + j) * b.br * b.bc
}

func (b *Blocks) block(i, j int) []float64 {
	off := b.offset(i, j)
	return b.data[off : off+b.br*b.bc]
}

func (b *Blocks) checkBlock(m mat.Matrix) {
	if r, c := m.Dims(); r != b.br || c != b.bc {
		panic(mat.ErrShape)
	}
}

// At returns a copy of block (i, j).
func (b *Blocks) At(i, j int) *mat.Dense {
	out := make([]float64, b.br*b.bc)
	copy(out, b.block(i, j))
	return mat.NewDense(b.br, b.bc, out)
}

// Set overwrites block (i, j) with m.
func (b *Blocks) Set(i, j int, m mat.Matrix) {
	b.checkBlock(m)
	dst := b.block(i, j)
	for k := 0; k < b.br; k++ {
		for l := 0; l < b.bc; l++ {
			dst[k*b.bc+l] = m.At(k, l)
		}
	}
}

// AddTo adds m into block (i, j).
func (b *Blocks) AddTo(i, j int, m mat.Matrix) {
	b.checkBlock(m)
	dst := b.block(i, j)
	for k := 0; k < b.br; k++ {
		for l := 0; l < b.bc; l++ {
			dst[k*b.bc+l] += m.At(k, l)
		}
	}
}

// Zero clears every block.
func (b *Blocks) Zero() {
	for i := range b.data {
		b.data[i] = 0
	}
}

// ZeroRow clears every block in block row i.
func (b *Blocks) ZeroRow(i int) {
	for j := 0; j < b.cols; j++ {
		blk := b.block(i, j)
		for k := range blk {
			blk[k] = 0
		}
	}
}

// ZeroCol clears every block in block column j.
func (b *Blocks) ZeroCol(j int) {
	for i := 0; i < b.rows; i++ {
		blk := b.block(i, j)
		for k := range blk {
			blk[k] = 0
		}
	}
}

// IsZeroBlock reports whether every entry of block (i, j) is exactly zero.
func (b *Blocks) IsZeroBlock(i, j int) bool {
	for _, v := range b.block(i, j) {
		if v != 0 {
			return false
		}
	}
	return true
}

// Slice returns a copy of the block rows [i0, i1) and block columns [j0, j1).
func (b *Blocks) Slice(i0, i1, j0, j1 int) *Blocks {
	if i0 < 0 || i1 > b.rows || i0 > i1 || j0 < 0 || j1 > b.cols || j0 > j1 {
		panic(mat.ErrIndexOutOfRange)
	}
	out := New(i1-i0, j1-j0, b.br, b.bc)
	for i := i0; i < i1; i++ {
		for j := j0; j < j1; j++ {
			copy(out.block(i-i0, j-j0), b.block(i, j))
		}
	}
	return out
}

// SetSlice copies src into the grid with its first block landing on (i0, j0).
func (b *Blocks) SetSlice(i0, j0 int, src *Blocks) {
	if src.br != b.br || src.bc != b.bc {
		panic(mat.ErrShape)
	}
	for i := 0; i < src.rows; i++ {
		for j := 0; j < src.cols; j++ {
			copy(b.block(i0+i, j0+j), src.block(i, j))
		}
	}
}

// Clone returns a deep copy.
func (b *Blocks) Clone() *Blocks {
	out := New(b.rows, b.cols, b.br, b.bc)
	copy(out.data, b.data)
	return out
}

// Equal reports whether two grids have the same shape and bit-identical entries.
func (b *Blocks) Equal(o *Blocks) bool {
	if b.rows != o.rows || b.cols != o.cols || b.br != o.br || b.bc != o.bc {
		return false
	}
	for i, v := range b.data {
		if o.data[i] != v {
			return false
		}
	}
	return true
}

// IsSymmetric reports whether block (i, j) equals the transpose of block (j, i) to within tol for
// every pair of blocks. Only square grids of square blocks can be symmetric.
func (b *Blocks) IsSymmetric(tol float64) bool {
	if b.rows != b.cols || b.br != b.bc {
		return false
	}
	for i := 0; i < b.rows; i++ {
		for j := i; j < b.cols; j++ {
			ij, ji := b.block(i, j), b.block(j, i)
			for k := 0; k < b.br; k++ {
				for l := 0; l < b.bc; l++ {
					d := ij[k*b.bc+l] - ji[l*b.bc+k]
					if d > tol || d < -tol {
						return false
					}
				}
			}
		}
	}
	return true
}
