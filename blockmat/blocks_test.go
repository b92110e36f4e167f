package blockmat

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func randomBlocks(rng *rand.Rand, rows, cols, br, bc int) *Blocks {
	b := New(rows, cols, br, bc)
	for i := range b.data {
		b.data[i] = rng.NormFloat64()
	}
	return b
}

func TestBlockRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, shape := range [][2]int{{6, 6}, {6, 1}} {
		for n := 1; n <= 4; n++ {
			for m := 1; m <= 3; m++ {
				x := randomBlocks(rng, n, m, shape[0], shape[1])
				d := Block(x)
				r, c := d.Dims()
				test.That(t, r, test.ShouldEqual, n*shape[0])
				test.That(t, c, test.ShouldEqual, m*shape[1])

				back, err := Unblock(d, shape[0], shape[1])
				test.That(t, err, test.ShouldBeNil)
				test.That(t, back.Equal(x), test.ShouldBeTrue)
			}
		}
	}
}

func TestBlockElementMapping(t *testing.T) {
	x := New(2, 3, 6, 6)
	x.data[x.offset(1, 2)+4*6+5] = 42
	d := Block(x)
	test.That(t, d.At(1*6+4, 2*6+5), test.ShouldEqual, 42.0)
	test.That(t, mat.Sum(d), test.ShouldEqual, 42.0)

	v := New(3, 1, 6, 1)
	v.Set(2, 0, mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6}))
	dv := Block(v)
	test.That(t, dv.At(12, 0), test.ShouldEqual, 1.0)
	test.That(t, dv.At(17, 0), test.ShouldEqual, 6.0)
}

func TestUnblockShapeError(t *testing.T) {
	_, err := Unblock(mat.NewDense(7, 6, nil), 6, 6)
	test.That(t, errors.Is(err, ErrShape), test.ShouldBeTrue)

	_, err = Unblock(mat.NewDense(12, 5, nil), 6, 1)
	test.That(t, err, test.ShouldBeNil)

	_, err = Unblock(mat.NewDense(12, 5, nil), 6, 2)
	test.That(t, errors.Is(err, ErrShape), test.ShouldBeTrue)
}

func TestSliceAndSetSlice(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := randomBlocks(rng, 4, 4, 6, 6)

	sub := x.Slice(1, 4, 2, 4)
	rows, cols := sub.Dims()
	test.That(t, rows, test.ShouldEqual, 3)
	test.That(t, cols, test.ShouldEqual, 2)
	test.That(t, mat.Equal(sub.At(0, 0), x.At(1, 2)), test.ShouldBeTrue)
	test.That(t, mat.Equal(sub.At(2, 1), x.At(3, 3)), test.ShouldBeTrue)

	y := New(4, 4, 6, 6)
	y.SetSlice(0, 1, sub)
	test.That(t, mat.Equal(y.At(0, 1), x.At(1, 2)), test.ShouldBeTrue)
	test.That(t, y.IsZeroBlock(3, 0), test.ShouldBeTrue)

	// slices are copies
	sub.Zero()
	test.That(t, x.IsZeroBlock(1, 2), test.ShouldBeFalse)
}

func TestZeroRowCol(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	x := randomBlocks(rng, 3, 3, 6, 6)
	x.ZeroRow(1)
	x.ZeroCol(1)
	for i := 0; i < 3; i++ {
		test.That(t, x.IsZeroBlock(1, i), test.ShouldBeTrue)
		test.That(t, x.IsZeroBlock(i, 1), test.ShouldBeTrue)
	}
	test.That(t, x.IsZeroBlock(0, 0), test.ShouldBeFalse)
	test.That(t, x.IsZeroBlock(2, 2), test.ShouldBeFalse)
}

func TestAddToAndSymmetry(t *testing.T) {
	x := New(2, 2, 6, 6)
	m := mat.NewDense(6, 6, nil)
	for k := 0; k < 6; k++ {
		m.Set(k, (k+1)%6, float64(k+1))
	}
	x.AddTo(0, 1, m)
	test.That(t, x.IsSymmetric(1e-12), test.ShouldBeFalse)
	x.AddTo(1, 0, m.T())
	test.That(t, x.IsSymmetric(1e-12), test.ShouldBeTrue)

	x.AddTo(0, 1, m)
	test.That(t, x.At(0, 1).At(2, 3), test.ShouldEqual, 6.0)
	test.That(t, New(2, 1, 6, 1).IsSymmetric(1), test.ShouldBeFalse)
}

func TestSetWrongShapePanics(t *testing.T) {
	x := New(2, 2, 6, 6)
	test.That(t, func() { x.Set(0, 0, mat.NewDense(6, 1, nil)) }, test.ShouldPanic)
	test.That(t, func() { x.At(2, 0) }, test.ShouldPanic)
}
